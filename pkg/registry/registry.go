package registry

import (
	"sort"
	"sync"
)

// Registry 进程内可选组件注册表。main 在装配阶段把缓存、检索、
// 实时通道等可选组件登记进来，运维接口据此报告装配情况。
type Registry struct {
	mu   sync.RWMutex
	objs map[string]interface{}
}

var global = &Registry{objs: make(map[string]interface{})}

// Set 登记一个组件
func Set(name string, obj interface{}) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.objs[name] = obj
}

// Get 按名称取出组件
func Get(name string) (interface{}, bool) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	v, ok := global.objs[name]
	return v, ok
}

// MustGet 取出组件，缺失时 panic，只在装配阶段使用
func MustGet(name string) interface{} {
	if v, ok := Get(name); ok {
		return v
	}
	panic("registry: object not found: " + name)
}

// Names 返回已登记组件名的有序列表
func Names() []string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	names := make([]string, 0, len(global.objs))
	for name := range global.objs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
