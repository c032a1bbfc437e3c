package notification

import "context"

type JPushConfig struct {
	AppKey       string
	MasterSecret string
}

type JPushClient interface {
	Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error
}

type JPush struct {
	cfg JPushConfig
	cli JPushClient
}

func NewJPush(cfg JPushConfig, cli JPushClient) *JPush { return &JPush{cfg: cfg, cli: cli} }

func (j *JPush) PushToAlias(ctx context.Context, alias []string, title, content string, extras map[string]interface{}) error {
	if j.cli == nil {
		return context.Canceled // 表示未配置客户端
	}
	aud := map[string]interface{}{"alias": alias}
	return j.cli.Push(ctx, title, content, aud, extras)
}

// PushChannel 移动端推送通道，以用户ID作为推送别名
type PushChannel struct {
	push *JPush
}

// NewPushChannel 创建推送通道
func NewPushChannel(cfg JPushConfig, cli JPushClient) *PushChannel {
	return &PushChannel{push: NewJPush(cfg, cli)}
}

func (c *PushChannel) Name() string { return "push" }

// Deliver 向接收者推送
func (c *PushChannel) Deliver(ctx context.Context, p Payload) error {
	extras := make(map[string]interface{}, len(p.Extras)+1)
	for k, v := range p.Extras {
		extras[k] = v
	}
	extras["kind"] = p.Kind
	err := c.push.PushToAlias(ctx, []string{p.UserID}, p.Title, p.Content, extras)
	if err == context.Canceled {
		// 未配置推送客户端时跳过
		return nil
	}
	return err
}
