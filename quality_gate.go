package rppg

import "math"

// QualityGate 判定一个滤波后窗口是否携带可用的生理信号
// 没有这道门控，FFT 会在纯噪声上给出一个看起来很自信但毫无意义的峰值
type QualityGate struct {
	varianceFloor float64
}

// NewQualityGate 创建实例
func NewQualityGate(cfg *Config) *QualityGate {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &QualityGate{varianceFloor: cfg.Quality.VarianceFloor}
}

// Accept 返回该窗口是否应该进入指标计算
// hasFace 来自采集端皮肤分类器，false 直接拒绝
// 标准差低于下限说明画面是静态低方差场景 (例如墙壁)，同样拒绝
func (g *QualityGate) Accept(filtered []float64, hasFace bool) bool {
	if !hasFace {
		return false
	}
	if len(filtered) < 2 {
		return false
	}
	return stddev(filtered) >= g.varianceFloor
}

// stddev 样本标准差 (n-1)
func stddev(data []float64) float64 {
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1))
}
