package rppg

// SignalFilter 两级预处理滤波器：去基线 + 平滑
// 基线漂移 (光照/轻微移动造成的慢变分量) 远大于脉搏分量本身，
// 必须先扣除，否则 FFT 的能量全部集中在近零频
type SignalFilter struct {
	alpha  float64 // 基线追踪的指数平滑系数
	radius int     // 滑动平均半径

	// 流式基线状态
	baseline    float64
	initialized bool
}

// NewSignalFilter 创建实例
func NewSignalFilter(cfg *Config) *SignalFilter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &SignalFilter{
		alpha:  cfg.Filter.BaselineAlpha,
		radius: cfg.Filter.SmoothingRadius,
	}
}

// Reset 清除基线追踪状态，会话复位时必须调用
// 否则上一个会话的基线会泄漏到新会话 (跨会话污染是正确性 bug)
func (f *SignalFilter) Reset() {
	f.baseline = 0
	f.initialized = false
}

// Apply 对一个窗口执行去基线 + 平滑，输出与输入等长
// 输入长度 < 2 时原样返回 (数据不足，不做处理)
func (f *SignalFilter) Apply(window []float64) []float64 {
	if len(window) < 2 {
		return window
	}

	// 1. 去基线 (Baseline Removal)
	// 用运行中的指数均值估计局部基线，逐点扣除
	// 相比整窗减均值，指数追踪对窗口内的慢漂移也有抑制
	detrended := make([]float64, len(window))
	for i, v := range window {
		if !f.initialized {
			f.baseline = v
			f.initialized = true
		} else {
			f.baseline = f.baseline*(1-f.alpha) + v*f.alpha
		}
		detrended[i] = v - f.baseline
	}

	// 2. 平滑 (Centered Moving Average)
	// 居中窗口没有相位延迟；边缘处收缩窗口 (clamp)，不做补零
	return movingAverage(detrended, f.radius)
}

// ApplyBatch 批处理形式：整窗减算术均值 + 平滑，纯函数，不触碰流式状态
// 用于离线回放分析，结果与流式形式在稳态下一致
func (f *SignalFilter) ApplyBatch(window []float64) []float64 {
	if len(window) < 2 {
		return window
	}

	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(len(window))

	detrended := make([]float64, len(window))
	for i, v := range window {
		detrended[i] = v - mean
	}

	return movingAverage(detrended, f.radius)
}

// movingAverage 半径为 radius 的居中滑动平均，边缘使用全部可用邻居
func movingAverage(in []float64, radius int) []float64 {
	if radius <= 0 {
		return in
	}
	out := make([]float64, len(in))
	for i := range in {
		lo := i - radius
		if lo < 0 {
			lo = 0
		}
		hi := i + radius
		if hi > len(in)-1 {
			hi = len(in) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += in[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
