package rppg

import (
	"math"
	"sort"
)

// WindowEstimate 一次分析窗口产出的瞬时估计，用完即弃，不持久化
type WindowEstimate struct {
	BPM   float64 `json:"bpm"`
	RMSSD float64 `json:"rmssd"` // 毫秒
	SNR   float64 `json:"snr"`
}

// Confidence 报告置信度
type Confidence string

const (
	ConfidenceHigh Confidence = "high" // 接受的窗口数足够
	ConfidenceLow  Confidence = "low"  // 窗口数不足，报告仅供参考，但不是错误
)

// Report 会话结束时产出的最终摘要，生成后不可变
type Report struct {
	BPM         float64    `json:"bpm"`
	HRV         float64    `json:"hrv"` // RMSSD 中位数 (毫秒)
	Stress      float64    `json:"stress"`
	Respiration float64    `json:"respiration"`
	Confidence  Confidence `json:"confidence"`
	Windows     int        `json:"windows"` // 被接受的窗口数
}

// SessionStats 按会话累积已接受的窗口估计，并产出最终报告
// 各指标取中位数：咳嗽/晃动造成的单次尖刺不影响结果
type SessionStats struct {
	cfg *Config

	bpms     []float64
	rmssds   []float64
	stresses []float64
}

// NewSessionStats 创建实例
func NewSessionStats(cfg *Config) *SessionStats {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &SessionStats{cfg: cfg}
}

// Reset 清空累积序列，会话开始时调用
func (ss *SessionStats) Reset() {
	ss.bpms = ss.bpms[:0]
	ss.rmssds = ss.rmssds[:0]
	ss.stresses = ss.stresses[:0]
}

// Accepted 返回已累积的窗口数
func (ss *SessionStats) Accepted() int {
	return len(ss.bpms)
}

// Accumulate 将一次窗口估计计入会话统计
// 只有 SNR 达标且 BPM 在合理生理区间内的估计才会被接受；
// 被拒绝的窗口什么也不贡献，测量继续 (失败不致命)
func (ss *SessionStats) Accumulate(est WindowEstimate) bool {
	if est.SNR < ss.cfg.Quality.SNRThreshold {
		return false
	}
	if est.BPM < ss.cfg.Session.MinBPM || est.BPM > ss.cfg.Session.MaxBPM {
		return false
	}

	ss.bpms = append(ss.bpms, est.BPM)
	if est.RMSSD > 0 {
		ss.rmssds = append(ss.rmssds, est.RMSSD)
	}
	ss.stresses = append(ss.stresses, ss.stressScore(est.BPM, est.RMSSD))
	return true
}

// stressScore 由 BPM 抬升和 HRV 缺失加权合成压力评分，clamp 到 [0, 100]
// 心率越高、HRV 越低 -> 压力越大。纯经验指标，不是临床量表
func (ss *SessionStats) stressScore(bpm, rmssd float64) float64 {
	// BPM 归一化：60 视为静息基准，到 Session.MaxBPM 封顶
	bpmElev := (bpm - 60.0) / (ss.cfg.Session.MaxBPM - 60.0)
	bpmElev = clamp01(bpmElev)

	// RMSSD 为 0 是 "峰不足" 哨兵值，不是实测的 HRV 极差，
	// 此时只按 BPM 项计分 (权重归一到 1)
	if rmssd <= 0 {
		return bpmElev * 100.0
	}

	// HRV 归一化：RMSSD 50ms 以上视为充分放松
	hrvDeficit := (50.0 - rmssd) / 50.0
	hrvDeficit = clamp01(hrvDeficit)

	score := (ss.cfg.Session.StressBPMWeight*bpmElev +
		ss.cfg.Session.StressHRVWeight*hrvDeficit) * 100.0

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Report 产出最终报告：各序列取中位数，呼吸率按固定系数从 BPM 推导
// 呼吸率不是独立测量的，心率/呼吸 ≈ 4:1 只是经验比值
func (ss *SessionStats) Report() Report {
	bpm := median(ss.bpms)
	hrv := median(ss.rmssds)
	stress := median(ss.stresses)

	respiration := 0.0
	if ss.cfg.Session.RespirationRatio > 0 {
		respiration = bpm / ss.cfg.Session.RespirationRatio
	}

	confidence := ConfidenceLow
	if len(ss.bpms) > ss.cfg.Session.MinAcceptedWindows {
		confidence = ConfidenceHigh
	}

	return Report{
		BPM:         round1(bpm),
		HRV:         round1(hrv),
		Stress:      round1(stress),
		Respiration: round1(respiration),
		Confidence:  confidence,
		Windows:     len(ss.bpms),
	}
}

// median 中位数，空序列返回 0
func median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2.0
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
