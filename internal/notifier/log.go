package notifier

import (
	"context"
	"log"
	"os"
	"strings"
)

// LogSender 只打印邮件内容，不真正发送，适合开发阶段使用。
type LogSender struct {
	logger *log.Logger
}

// NewLogSender 创建日志发送器，未提供 logger 时默认输出到标准输出。
func NewLogSender(logger *log.Logger) *LogSender {
	if logger == nil {
		logger = log.New(os.Stdout, "[mail] ", log.LstdFlags)
	}
	return &LogSender{logger: logger}
}

// Send 打印收件人与正文。
func (s *LogSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Printf("to=%s subject=%q", strings.Join(msg.To, ","), msg.Subject)
	s.logger.Printf("body: %s", msg.Body)
	return nil
}
