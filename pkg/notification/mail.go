package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// MailConfig 邮件配置
type MailConfig struct {
	Host     string
	Port     int64
	Username string
	Password string
	From     string
}

// MailNotification SMTP 邮件发送
type MailNotification struct {
	cfg MailConfig
}

// NewMailNotification 创建邮件发送器
func NewMailNotification(cfg MailConfig) *MailNotification {
	return &MailNotification{cfg: cfg}
}

// Send 发送一封纯文本邮件
func (m *MailNotification) Send(to, subject, body string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("mail host not configured")
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}

// MailChannel 邮件通道，需要一个按用户查询邮箱的回调
type MailChannel struct {
	mail    *MailNotification
	lookups func(ctx context.Context, userID string) (string, error)
}

// NewMailChannel 创建邮件通道
func NewMailChannel(cfg MailConfig, lookup func(ctx context.Context, userID string) (string, error)) *MailChannel {
	return &MailChannel{mail: NewMailNotification(cfg), lookups: lookup}
}

func (c *MailChannel) Name() string { return "mail" }

// Deliver 按接收者邮箱投递，用户无邮箱时静默跳过
func (c *MailChannel) Deliver(ctx context.Context, p Payload) error {
	email, err := c.lookups(ctx, p.UserID)
	if err != nil {
		return err
	}
	if email == "" {
		return nil
	}
	return c.mail.Send(email, p.Title, p.Content)
}
