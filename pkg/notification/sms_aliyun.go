package notification

import (
	"context"
	"fmt"
)

type AliyunSMSConfig struct {
	AccessKeyId     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
	Endpoint        string // 默认 cn-hangzhou
}

// AliyunSMSClient 便于替换/注入的发送接口（适配真实 SDK）
type AliyunSMSClient interface {
	Send(ctx context.Context, phone, sign, template string, params map[string]string) error
}

type AliyunSMS struct {
	cfg AliyunSMSConfig
	cli AliyunSMSClient
}

func NewAliyunSMS(cfg AliyunSMSConfig, cli AliyunSMSClient) *AliyunSMS {
	return &AliyunSMS{cfg: cfg, cli: cli}
}

// SendAlert 发送报警/提醒短信
func (a *AliyunSMS) SendAlert(ctx context.Context, phone, content string) error {
	if a.cli == nil {
		return fmt.Errorf("AliyunSMSClient not configured")
	}
	params := map[string]string{"content": content}
	return a.cli.Send(ctx, phone, a.cfg.SignName, a.cfg.TemplateCode, params)
}

// SMSChannel 短信通道，只投递高优先级通知（报警、超时）
type SMSChannel struct {
	sms    *AliyunSMS
	lookup func(ctx context.Context, userID string) (string, error)
}

// NewSMSChannel 创建短信通道
func NewSMSChannel(cfg AliyunSMSConfig, cli AliyunSMSClient, lookup func(ctx context.Context, userID string) (string, error)) *SMSChannel {
	return &SMSChannel{sms: NewAliyunSMS(cfg, cli), lookup: lookup}
}

func (c *SMSChannel) Name() string { return "sms" }

// Deliver 投递短信；非紧急类型直接跳过
func (c *SMSChannel) Deliver(ctx context.Context, p Payload) error {
	switch p.Kind {
	case KindAlertActivated, KindCheckInExpired:
	default:
		return nil
	}
	phone, err := c.lookup(ctx, p.UserID)
	if err != nil {
		return err
	}
	if phone == "" {
		return nil
	}
	return c.sms.SendAlert(ctx, phone, p.Content)
}
