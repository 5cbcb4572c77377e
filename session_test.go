package rppg

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	// 中位数对单个离群点免疫，这是选它而不是均值的全部理由
	if m := median([]float64{70, 71, 69, 250}); m != 70.5 {
		t.Errorf("Median of [70 71 69 250] should be 70.5, got %v", m)
	}
	if m := median([]float64{70, 71, 69}); m != 70 {
		t.Errorf("Median of [70 71 69] should be 70, got %v", m)
	}
	if m := median(nil); m != 0 {
		t.Errorf("Median of empty should be 0, got %v", m)
	}
}

func TestSessionStats_OutlierRobustReport(t *testing.T) {
	ss := NewSessionStats(nil)

	// 250 BPM 超出生理区间，在累积阶段就被拒绝；
	// 即便混进去了，报告用中位数也不会被它拉偏
	for _, bpm := range []float64{70, 71, 69, 250} {
		ss.Accumulate(WindowEstimate{BPM: bpm, RMSSD: 40, SNR: 5.0})
	}

	if ss.Accepted() != 3 {
		t.Fatalf("250 BPM should be rejected, accepted %d", ss.Accepted())
	}

	report := ss.Report()
	if math.Abs(report.BPM-70.0) > 0.5 {
		t.Errorf("Report BPM should be the inlier median ~70, got %v", report.BPM)
	}
}

func TestSessionStats_SNRGate(t *testing.T) {
	ss := NewSessionStats(nil)

	// 低信噪比窗口不进入统计
	if ss.Accumulate(WindowEstimate{BPM: 70, RMSSD: 40, SNR: 0.5}) {
		t.Error("Low SNR estimate should be rejected")
	}
	if ss.Accepted() != 0 {
		t.Errorf("Nothing should be accumulated, got %d", ss.Accepted())
	}
}

func TestSessionStats_StressScore(t *testing.T) {
	ss := NewSessionStats(nil)

	// 静息状态：60 BPM + 充足 HRV -> 压力 0
	if s := ss.stressScore(60, 50); s != 0 {
		t.Errorf("Resting state should score 0, got %v", s)
	}

	// 极限状态：高心率 + 无 HRV -> 压力 100
	if s := ss.stressScore(180, 0); s != 100 {
		t.Errorf("Max elevation should score 100, got %v", s)
	}

	// 超出极限也必须 clamp 在 [0, 100]
	if s := ss.stressScore(300, 0); s < 0 || s > 100 {
		t.Errorf("Score must be clamped to [0,100], got %v", s)
	}
	if s := ss.stressScore(40, 200); s < 0 || s > 100 {
		t.Errorf("Score must be clamped to [0,100], got %v", s)
	}
}

func TestSessionStats_Confidence(t *testing.T) {
	cfg := DefaultConfig()
	ss := NewSessionStats(cfg)

	// 窗口数不足 -> 低置信度 (不是错误)
	for i := 0; i < 3; i++ {
		ss.Accumulate(WindowEstimate{BPM: 72, RMSSD: 40, SNR: 3.0})
	}
	if r := ss.Report(); r.Confidence != ConfidenceLow {
		t.Errorf("3 windows should give low confidence, got %s", r.Confidence)
	}

	// 超过 MinAcceptedWindows -> 高置信度
	for i := 0; i < cfg.Session.MinAcceptedWindows; i++ {
		ss.Accumulate(WindowEstimate{BPM: 72, RMSSD: 40, SNR: 3.0})
	}
	if r := ss.Report(); r.Confidence != ConfidenceHigh {
		t.Errorf("Enough windows should give high confidence, got %s", r.Confidence)
	}
}

func TestSessionStats_StressWithoutRMSSD(t *testing.T) {
	ss := NewSessionStats(nil)

	// RMSSD 为 0 (峰不足) 时只按 BPM 项计分：
	// 静息 60 BPM + 拿不到 HRV 必须是 0 分，而不是整个 HRV 缺失项满分
	ss.Accumulate(WindowEstimate{BPM: 60, RMSSD: 0, SNR: 5.0})
	if r := ss.Report(); r.Stress != 0 {
		t.Errorf("Resting BPM with unavailable HRV should score 0, got %v", r.Stress)
	}

	// 同样的静息 BPM，实测到的低 HRV 才应该抬高评分
	ss.Reset()
	ss.Accumulate(WindowEstimate{BPM: 60, RMSSD: 10, SNR: 5.0})
	if r := ss.Report(); r.Stress <= 0 {
		t.Errorf("Measured HRV deficit should raise the score, got %v", r.Stress)
	}

	// 拿不到 HRV 的窗口评分不得高于实测充足 HRV 的窗口
	ss.Reset()
	ss.Accumulate(WindowEstimate{BPM: 60, RMSSD: 50, SNR: 5.0})
	if r := ss.Report(); r.Stress != 0 {
		t.Errorf("Relaxed measured HRV should also score 0, got %v", r.Stress)
	}
}

func TestSessionStats_Respiration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.RespirationRatio = 4.0
	ss := NewSessionStats(cfg)

	ss.Accumulate(WindowEstimate{BPM: 72, RMSSD: 40, SNR: 3.0})

	// 呼吸率只是 bpm / ratio 的经验代理
	if r := ss.Report(); math.Abs(r.Respiration-18.0) > 0.1 {
		t.Errorf("72 BPM / 4.0 should give 18, got %v", r.Respiration)
	}
}

func TestSessionStats_ZeroRMSSDNotAccumulated(t *testing.T) {
	ss := NewSessionStats(nil)

	// RMSSD 为 0 表示 "峰不足"，不应污染 HRV 中位数
	ss.Accumulate(WindowEstimate{BPM: 72, RMSSD: 0, SNR: 3.0})
	ss.Accumulate(WindowEstimate{BPM: 72, RMSSD: 50, SNR: 3.0})

	if r := ss.Report(); r.HRV != 50 {
		t.Errorf("Zero RMSSD windows should be excluded from HRV median, got %v", r.HRV)
	}
}

func TestSessionStats_Reset(t *testing.T) {
	ss := NewSessionStats(nil)
	ss.Accumulate(WindowEstimate{BPM: 72, RMSSD: 40, SNR: 3.0})
	ss.Reset()

	if ss.Accepted() != 0 {
		t.Errorf("Stats should be empty after reset, got %d", ss.Accepted())
	}
	// 空状态下的报告是全零 + 低置信度，而不是 panic
	r := ss.Report()
	if r.BPM != 0 || r.Confidence != ConfidenceLow {
		t.Errorf("Empty report should be zeroed with low confidence, got %+v", r)
	}
}
