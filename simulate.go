package rppg

import (
	"math"
	"time"
)

// PPGSim 生成一条类 rPPG 的皮肤颜色差信号 (非临床)
// 刻意保持简单：脉搏正弦 + 二次谐波 + 基线漂移 + 确定性噪声
// 确定性噪声让测试可复现，不需要随机种子
type PPGSim struct {
	fs     float64 // 采样率 (Hz)
	hrBPM  float64 // 模拟心率
	noise  float64 // 噪声幅度，相对主波 (0.0 - 0.5 合理)
	drift  float64 // 基线漂移幅度
	sample int
}

// NewPPGSim fs=30 (典型摄像头帧率)，hrBPM 典型 55-100，noise ~0.0-0.2
func NewPPGSim(fs, hrBPM, noise float64) *PPGSim {
	return &PPGSim{
		fs:    fs,
		hrBPM: hrBPM,
		noise: noise,
		drift: 0.5,
	}
}

// Next 返回下一个采样值并推进时间
func (s *PPGSim) Next() float64 {
	t := float64(s.sample) / s.fs
	s.sample++

	pulseHz := s.hrBPM / 60.0

	// 主波 + 二次谐波 (让波形带一点重搏波的不对称感)
	pulse := math.Sin(2*math.Pi*pulseHz*t) + 0.3*math.Sin(4*math.Pi*pulseHz*t)

	// 基线漂移 (光照缓慢变化，0.1Hz)
	baseline := s.drift * math.Sin(2*math.Pi*0.1*t)

	// 确定性伪随机噪声
	n := s.noise * (2*fract(math.Sin(12345.678*t)*9876.543) - 1)

	return pulse + baseline + n
}

// NextSample 返回封装好的 Sample，时间戳 = base + 帧序号/fs
func (s *PPGSim) NextSample(base time.Time) Sample {
	idx := s.sample // Next 会自增，先记下当前帧序号
	v := s.Next()
	ts := base.Add(time.Duration(float64(idx) / s.fs * float64(time.Second)))
	return Sample{Value: v, Timestamp: ts, HasFace: true}
}

func fract(x float64) float64 { return x - math.Floor(x) }
