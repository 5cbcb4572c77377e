package rppg

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// SpectrumAnalyzer 频域心率提取器
// 对滤波后的窗口做 FFT，在生理频段内找主频，换算为 BPM，并给出信噪比
type SpectrumAnalyzer struct {
	cfg *Config

	// 时间平滑状态
	lastBPM float64 // 上一次的估计
	hasLock bool    // 是否已有过一次有效估计
}

// NewSpectrumAnalyzer 创建实例
func NewSpectrumAnalyzer(cfg *Config) *SpectrumAnalyzer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &SpectrumAnalyzer{cfg: cfg}
}

// Reset 清除 BPM 平滑记忆，会话复位时调用
func (sa *SpectrumAnalyzer) Reset() {
	sa.lastBPM = 0
	sa.hasLock = false
}

// Analyze 分析一个滤波后的窗口
// sampleRate 必须由调用方根据实际墙钟时间动态计算，不能假设常数帧率
// 数据不足或采样率退化时返回全零估计，表示 "继续等待"，绝不猜测
func (sa *SpectrumAnalyzer) Analyze(filtered []float64, sampleRate float64) (bpm, snr float64, spectrum []float64) {
	if len(filtered) < sa.cfg.Spectrum.MinSamples || sampleRate <= 0 {
		return 0, 0, nil
	}

	// 1. 截取最近约 WindowSeconds 秒的数据
	sliceLen := int(sampleRate * sa.cfg.Spectrum.WindowSeconds)
	if sliceLen > len(filtered) {
		sliceLen = len(filtered)
	}
	if sliceLen < sa.cfg.Spectrum.MinSamples {
		sliceLen = sa.cfg.Spectrum.MinSamples
	}
	input := filtered[len(filtered)-sliceLen:]

	// 2. 加 Hamming 窗，抑制窗口硬边缘造成的频谱泄漏
	win := window.Hamming(sliceLen)
	windowed := make([]float64, nextPow2(sliceLen)) // 3. 补零到 2 的幂
	for i, v := range input {
		windowed[i] = v * win[i]
	}

	// 4. FFT 并计算半谱幅度
	fftResult := fft.FFTReal(windowed)
	fftSize := len(windowed)
	half := fftSize / 2
	mags := make([]float64, half)
	for i := 0; i < half; i++ {
		mags[i] = cmplx.Abs(fftResult[i])
	}

	// 5. 在生理频段内找主频
	// binWidth 基于动态采样率，同一 bin 在不同帧率下对应不同频率
	binWidth := sampleRate / float64(fftSize)

	// 下限向上取整：低于 minFreq 的 bin 里全是基线漂移的泄漏，一个都不能进来
	startIndex := int(math.Ceil(sa.cfg.MinFreq() / binWidth))
	endIndex := int(sa.cfg.MaxFreq()/binWidth) + 1
	if startIndex < 1 {
		startIndex = 1 // 跳过 DC bin
	}
	if endIndex > half {
		endIndex = half
	}
	if startIndex >= endIndex {
		return 0, 0, mags
	}

	maxMag := 0.0
	maxIndex := -1
	for i := startIndex; i < endIndex; i++ {
		if mags[i] > maxMag {
			maxMag = mags[i]
			maxIndex = i
		}
	}
	if maxIndex < 0 || maxMag <= 0 {
		// 全零窗口 (静态场景) 没有可用峰值
		return 0, 0, mags
	}

	rawBPM := float64(maxIndex) * binWidth * 60.0

	// 6. SNR = 峰值幅度 / 频段内距峰值 2 个 bin 以上的平均幅度
	noiseSum, noiseCount := 0.0, 0
	for i := startIndex; i < endIndex; i++ {
		if i >= maxIndex-2 && i <= maxIndex+2 {
			continue
		}
		noiseSum += mags[i]
		noiseCount++
	}
	if noiseCount == 0 || noiseSum == 0 {
		// 频段内没有峰外能量，视为高信噪比，避免除零
		snr = 99.0
	} else {
		snr = maxMag / (noiseSum / float64(noiseCount))
	}

	// 7. 突变抑制 (Jump Rejection)
	// 眨眼/晃动等瞬时伪影会让单帧主频乱跳，向旧估计混合而不是直接采纳
	if sa.hasLock && absf(rawBPM-sa.lastBPM) > sa.cfg.Spectrum.MaxJumpBPM {
		keep := sa.cfg.Spectrum.SmoothKeep
		bpm = sa.lastBPM*keep + rawBPM*(1-keep)
	} else {
		bpm = rawBPM
	}

	sa.lastBPM = bpm
	sa.hasLock = true

	return bpm, snr, mags
}

// nextPow2 返回不小于 n 的最小 2 的幂
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
