package rppg

import "math"

// PeakEstimator 时域峰值检测与 HRV (RMSSD) 估计
// 频域方法给出平均心率，HRV 需要逐搏间期，只能走时域
type PeakEstimator struct {
	minIntervalMs float64
	maxIntervalMs float64
}

// NewPeakEstimator 创建实例
func NewPeakEstimator(cfg *Config) *PeakEstimator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &PeakEstimator{
		minIntervalMs: cfg.Peaks.MinIntervalMs,
		maxIntervalMs: cfg.Peaks.MaxIntervalMs,
	}
}

// FindPeaks 在滤波后窗口中寻找心搏峰
// 峰的判定：5 点局部极大 (严格大于左右各两个邻居)，且幅度为正
// 滤波后信号均值为零，负值区间不可能是收缩期波峰
func (pe *PeakEstimator) FindPeaks(filtered []float64) []int {
	var peaks []int
	for i := 2; i < len(filtered)-2; i++ {
		v := filtered[i]
		if v <= 0 {
			continue
		}
		if v > filtered[i-1] && v > filtered[i-2] &&
			v > filtered[i+1] && v > filtered[i+2] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// RMSSD 由峰位置序列计算 RMSSD (毫秒)
// 1. 相邻峰的下标差换算为心搏间期 (ms)，使用动态采样率
// 2. 丢弃生理范围之外的间期 (运动伪影/漏检)
// 3. 对剩余相邻间期的逐次差取均方根
// 有效峰不足 3 个 (2 个间期, 1 个差值) 时返回 0，表示 "峰不足"
func (pe *PeakEstimator) RMSSD(peaks []int, sampleRate float64) float64 {
	if len(peaks) < 3 || sampleRate <= 0 {
		return 0
	}

	// 峰间距 -> 间期 (ms)，越界的直接丢弃
	var intervals []float64
	for i := 1; i < len(peaks); i++ {
		ms := float64(peaks[i]-peaks[i-1]) / sampleRate * 1000.0
		if ms < pe.minIntervalMs || ms > pe.maxIntervalMs {
			continue
		}
		intervals = append(intervals, ms)
	}
	if len(intervals) < 2 {
		return 0
	}

	sumSq := 0.0
	for i := 1; i < len(intervals); i++ {
		d := intervals[i] - intervals[i-1]
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(intervals)-1))
}
