package rppg

import (
	"math"
	"testing"
)

func TestPeakEstimator_FindPeaks(t *testing.T) {
	pe := NewPeakEstimator(nil)

	// 1 Hz 正弦在 25 Hz 采样下，每 25 个点一个波峰 (i = 6, 31, 56, 81)
	input := generateSine(1.0, 4.0, 25.0)
	peaks := pe.FindPeaks(input)

	if len(peaks) != 4 {
		t.Fatalf("Expected 4 peaks in 4s of 1 Hz, got %d: %v", len(peaks), peaks)
	}
	expected := []int{6, 31, 56, 81}
	for i, p := range peaks {
		if int(math.Abs(float64(p-expected[i]))) > 1 {
			t.Errorf("Peak %d at index %d, expected near %d", i, p, expected[i])
		}
	}
}

func TestPeakEstimator_NegativePeaksIgnored(t *testing.T) {
	pe := NewPeakEstimator(nil)

	// 全负信号：局部极大也不算波峰 (收缩期波峰必须为正)
	input := make([]float64, 100)
	for i := range input {
		input[i] = -2.0 + math.Sin(float64(i)*0.5)
	}
	if peaks := pe.FindPeaks(input); len(peaks) != 0 {
		t.Errorf("Negative-valued local maxima should not count, got %v", peaks)
	}
}

func TestPeakEstimator_RMSSD(t *testing.T) {
	pe := NewPeakEstimator(nil)

	// 采样率 1000 Hz 时下标差即毫秒数，间期 800/900/800
	// 逐次差 +100/-100 -> RMSSD = 100
	peaks := []int{0, 800, 1700, 2500}
	rmssd := pe.RMSSD(peaks, 1000.0)
	if math.Abs(rmssd-100.0) > 1e-9 {
		t.Errorf("Expected RMSSD 100, got %v", rmssd)
	}
}

func TestPeakEstimator_RMSSDNonNegative(t *testing.T) {
	pe := NewPeakEstimator(nil)

	peaks := []int{0, 700, 1600, 2200, 3200}
	if rmssd := pe.RMSSD(peaks, 1000.0); rmssd < 0 {
		t.Errorf("RMSSD must never be negative, got %v", rmssd)
	}
}

func TestPeakEstimator_TooFewPeaks(t *testing.T) {
	pe := NewPeakEstimator(nil)

	// 有效峰不足 3 个 -> 0 ("峰不足"信号，不是错误)
	if rmssd := pe.RMSSD([]int{0, 800}, 1000.0); rmssd != 0 {
		t.Errorf("Fewer than 3 peaks should give 0, got %v", rmssd)
	}
	if rmssd := pe.RMSSD(nil, 1000.0); rmssd != 0 {
		t.Errorf("No peaks should give 0, got %v", rmssd)
	}
}

func TestPeakEstimator_DiscardsOutOfRangeIntervals(t *testing.T) {
	pe := NewPeakEstimator(nil)

	// 100ms 间期低于 300ms 下限 (运动伪影)，丢弃后有效间期只剩 1 个 -> 0
	peaks := []int{0, 100, 900}
	if rmssd := pe.RMSSD(peaks, 1000.0); rmssd != 0 {
		t.Errorf("Out-of-range interval should be discarded, got RMSSD %v", rmssd)
	}

	// 丢弃伪影间期后剩余间期仍够 -> 正常计算
	peaks = []int{0, 100, 900, 1800, 2600}
	if rmssd := pe.RMSSD(peaks, 1000.0); rmssd == 0 {
		t.Error("Valid intervals remain after discard, RMSSD should be non-zero")
	}
}
