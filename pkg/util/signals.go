package util

import "sync"

// SignalHandler 信号处理函数
type SignalHandler func(sender any, params ...any)

// Signals 进程内信号分发器，用于模块间解耦（监听器模式）
type Signals struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var (
	sigOnce sync.Once
	sig     *Signals
)

// Sig 返回全局信号分发器
func Sig() *Signals {
	sigOnce.Do(func() {
		sig = &Signals{handlers: make(map[string][]SignalHandler)}
	})
	return sig
}

// Connect 注册信号处理函数
func (s *Signals) Connect(signal string, handler SignalHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[signal] = append(s.handlers[signal], handler)
}

// Emit 同步触发信号，处理函数按注册顺序执行
func (s *Signals) Emit(signal string, sender any, params ...any) {
	s.mu.RLock()
	handlers := make([]SignalHandler, len(s.handlers[signal]))
	copy(handlers, s.handlers[signal])
	s.mu.RUnlock()

	for _, h := range handlers {
		h(sender, params...)
	}
}

// Disconnect 移除某个信号的全部处理函数（主要用于测试）
func (s *Signals) Disconnect(signal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, signal)
}
