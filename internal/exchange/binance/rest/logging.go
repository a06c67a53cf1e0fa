package rest

import "github.com/sirupsen/logrus"

func (c *Client) logEntry() *logrus.Entry {
	return c.log.WithComponent("binance_rest")
}
