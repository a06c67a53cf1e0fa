package cli

import (
	"errors"
	"fmt"
	"gridbot/internal/config"
	"os"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Работа с файлом конфигурации",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Создать файл конфигурации со значениями по умолчанию",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "configs/config.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("Файл %s уже существует, используйте --force", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("Не удалось проверить файл %s: %w", path, err)
			}

			if err := config.Default().SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Конфигурация записана в %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "перезаписать существующий файл")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Проверить конфигурацию",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			a.printf("Конфигурация корректна: %s %s, %d уровней, диапазон %v, период %s - %s, источник %s.\n",
				a.cfg.Strategy.Symbol, a.cfg.Strategy.Interval, a.cfg.Strategy.OrderQty, a.cfg.Strategy.GridRange,
				a.cfg.Backtest.StartDate, a.cfg.Backtest.EndDate, a.cfg.Backtest.Source)
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
