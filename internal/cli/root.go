package cli

import (
	"context"
	"fmt"
	"gridbot/internal/config"
	"gridbot/internal/logger"
	"io"

	"github.com/spf13/cobra"
)

type app struct {
	cfgPath  string
	logLevel string

	cfg *config.Config
	log *logger.Logger
	out io.Writer
}

// NewRootCmd builds the gridbot command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "gridbot",
		Short: "Бэктест сеточной стратегии на исторических свечах Binance",
		Long: `gridbot загружает историю свечей с биржи и прогоняет по ней статическую
сетку заявок на покупку и продажу, считая прибыль, сделки и комиссии.

Команды:
  fetch            - загрузить свечи в JSON файл или ClickHouse
  run              - прогнать стратегию по истории
  watch            - прогонять стратегию по закрытым свечам в реальном времени
  runs             - просмотр сохранённых прогонов
  config init      - создать файл конфигурации по умолчанию
  config validate  - проверить конфигурацию`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "путь к файлу конфигурации (по умолчанию configs/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "уровень логирования (debug, info, warn, error)")

	root.AddCommand(
		newFetchCmd(a),
		newRunCmd(a),
		newWatchCmd(a),
		newRunsCmd(a),
		newConfigCmd(a),
	)
	return root
}

// Execute runs the command tree with args; output goes to out.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

// load reads the configuration and builds the logger. Commands call it first.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Runtime.Log.Level = a.logLevel
	}

	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.log = logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
