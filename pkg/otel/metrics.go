package otel

import (
	"context"
	"sync"
	"time"
)

// Metrics 装配引擎的指标收集接口。
//
// 引擎各阶段只依赖本接口，不直接依赖任何导出后端；
// 指标名统一定义在 metric_names.go 的指标表中。
// 实现必须可安全并发调用，且不得因后端故障阻塞调用方。
type Metrics interface {
	// Counter 返回或创建指定名称的计数器
	Counter(name string) Counter
	// Histogram 返回或创建指定名称的直方图
	Histogram(name string) Histogram
	// Gauge 返回或创建指定名称的仪表
	Gauge(name string) Gauge
}

// Counter 单调递增的计数器（请求数、命中数等）。
type Counter interface {
	// Add 累加计数
	Add(ctx context.Context, value int64, attrs ...Attr)
}

// Histogram 数值分布的直方图（耗时、Token 数、质量评分等）。
type Histogram interface {
	// Record 记录一个观测值
	Record(ctx context.Context, value float64, attrs ...Attr)
}

// Gauge 瞬时值仪表。
type Gauge interface {
	// Set 设置当前值
	Set(ctx context.Context, value float64, attrs ...Attr)
}

// Attr 指标维度属性。
type Attr struct {
	Key   string
	Value any
}

// NewAttr 创建指标维度属性。
func NewAttr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// InMemoryMetrics 进程内指标实现。
//
// 按名称惰性创建仪表并缓存复用，供测试断言计数
// 和不接导出后端的轻量部署使用。
type InMemoryMetrics struct {
	counters   map[string]*InMemoryCounter
	histograms map[string]*InMemoryHistogram
	gauges     map[string]*InMemoryGauge
	mu         sync.RWMutex
}

// NewInMemoryMetrics 创建进程内指标收集器。
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]*InMemoryCounter),
		histograms: make(map[string]*InMemoryHistogram),
		gauges:     make(map[string]*InMemoryGauge),
	}
}

// Counter 返回或创建指定名称的计数器。
func (m *InMemoryMetrics) Counter(name string) Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c
	}

	c := &InMemoryCounter{name: name}
	m.counters[name] = c
	return c
}

// Histogram 返回或创建指定名称的直方图。
func (m *InMemoryMetrics) Histogram(name string) Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h
	}

	h := &InMemoryHistogram{name: name}
	m.histograms[name] = h
	return h
}

// Gauge 返回或创建指定名称的仪表。
func (m *InMemoryMetrics) Gauge(name string) Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.gauges[name]; ok {
		return g
	}

	g := &InMemoryGauge{name: name}
	m.gauges[name] = g
	return g
}

// GetCounterValue 返回计数器当前值，未创建过的计数器为 0。
func (m *InMemoryMetrics) GetCounterValue(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if c, ok := m.counters[name]; ok {
		return c.Value()
	}
	return 0
}

// GetGaugeValue 返回仪表当前值，未创建过的仪表为 0。
func (m *InMemoryMetrics) GetGaugeValue(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if g, ok := m.gauges[name]; ok {
		return g.Value()
	}
	return 0
}

// InMemoryCounter 进程内计数器。
type InMemoryCounter struct {
	name  string
	value int64
	mu    sync.RWMutex
}

// Add 累加计数。维度属性在进程内实现中不参与聚合。
func (c *InMemoryCounter) Add(ctx context.Context, value int64, attrs ...Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += value
}

// Value 返回累计值。
func (c *InMemoryCounter) Value() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// InMemoryHistogram 进程内直方图，保留全部观测值。
type InMemoryHistogram struct {
	name   string
	values []float64
	mu     sync.RWMutex
}

// Record 记录一个观测值。
func (h *InMemoryHistogram) Record(ctx context.Context, value float64, attrs ...Attr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, value)
}

// Values 返回全部观测值的副本。
func (h *InMemoryHistogram) Values() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]float64, len(h.values))
	copy(result, h.values)
	return result
}

// InMemoryGauge 进程内仪表，记录最近一次设置的值与时间。
type InMemoryGauge struct {
	name      string
	value     float64
	updatedAt time.Time
	mu        sync.RWMutex
}

// Set 设置当前值。
func (g *InMemoryGauge) Set(ctx context.Context, value float64, attrs ...Attr) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = value
	g.updatedAt = time.Now()
}

// Value 返回当前值。
func (g *InMemoryGauge) Value() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// NoopMetrics 空实现：所有记录调用为无操作。
// 未配置指标收集时引擎默认使用它，调用路径无需判空。
type NoopMetrics struct{}

// NewNoopMetrics 创建空实现指标收集器。
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (m *NoopMetrics) Counter(name string) Counter     { return noopCounter }
func (m *NoopMetrics) Histogram(name string) Histogram { return noopHistogram }
func (m *NoopMetrics) Gauge(name string) Gauge         { return noopGauge }

// NoopCounter 空计数器。
type NoopCounter struct{}

func (c *NoopCounter) Add(ctx context.Context, value int64, attrs ...Attr) {}

// NoopHistogram 空直方图。
type NoopHistogram struct{}

func (h *NoopHistogram) Record(ctx context.Context, value float64, attrs ...Attr) {}

// NoopGauge 空仪表。
type NoopGauge struct{}

func (g *NoopGauge) Set(ctx context.Context, value float64, attrs ...Attr) {}

// 空实现无状态，全局共享单例即可
var (
	noopCounter   = &NoopCounter{}
	noopHistogram = &NoopHistogram{}
	noopGauge     = &NoopGauge{}
)

// 编译时接口检查
var _ Metrics = (*InMemoryMetrics)(nil)
var _ Metrics = (*NoopMetrics)(nil)
var _ Counter = (*InMemoryCounter)(nil)
var _ Histogram = (*InMemoryHistogram)(nil)
var _ Gauge = (*InMemoryGauge)(nil)
