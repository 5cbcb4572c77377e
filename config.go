package rppg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 结构体用于集中管理整条 rPPG 管线的所有可调参数和阈值
// 这些阈值大多是经验值 (empirical)，不同光照/摄像头下最优值不同，
// 因此全部开放为配置项而不是硬编码
type Config struct {
	// --- 采样缓冲 (SampleStore) ---
	Buffer struct {
		Capacity int `yaml:"capacity"` // 缓冲区容量 (采样点数)。512 在 30fps 下约 17s
	} `yaml:"buffer"`

	// --- 滤波 (SignalFilter) ---
	Filter struct {
		BaselineAlpha   float64 `yaml:"baseline_alpha"`   // 基线追踪的指数平滑系数 (0.0 - 1.0)。值越小基线越平滑，0.05 适合 30fps
		SmoothingRadius int     `yaml:"smoothing_radius"` // 滑动平均半径 (采样点)。3-5 之间，太大会削平脉搏波峰
	} `yaml:"filter"`

	// --- 频谱分析 (SpectrumAnalyzer) ---
	Spectrum struct {
		MinBPM        float64 `yaml:"min_bpm"`        // 心率搜索下限 (BPM)，用于屏蔽呼吸等低频成分 (例如 40)
		MaxBPM        float64 `yaml:"max_bpm"`        // 心率搜索上限 (BPM) (例如 200)
		WindowSeconds float64 `yaml:"window_seconds"` // 分析窗口时长 (秒)。6-8s，越长频率分辨率越高但响应越慢
		MinSamples    int     `yaml:"min_samples"`    // 进行一次分析所需的最少采样点数，不足时返回零估计
		MaxJumpBPM    float64 `yaml:"max_jump_bpm"`   // 允许的最大 BPM 突变。超过视为瞬时伪影 (眨眼/晃动)，向旧值混合
		SmoothKeep    float64 `yaml:"smooth_keep"`    // 突变发生时保留旧估计的比例 (例如 0.8 代表 80% 旧 + 20% 新)
	} `yaml:"spectrum"`

	// --- 峰值检测 / HRV (PeakEstimator) ---
	Peaks struct {
		MinIntervalMs float64 `yaml:"min_interval_ms"` // 有效心搏间期下限 (毫秒)。300ms 对应 200 BPM
		MaxIntervalMs float64 `yaml:"max_interval_ms"` // 有效心搏间期上限 (毫秒)。1300ms 对应约 45 BPM
	} `yaml:"peaks"`

	// --- 质量门控 (QualityGate) ---
	Quality struct {
		VarianceFloor float64 `yaml:"variance_floor"` // 滤波后窗口的标准差下限。低于此值视为静态场景 (墙壁) 而非脉动皮肤
		SNRThreshold  float64 `yaml:"snr_threshold"`  // 接受一次窗口估计所需的最小信噪比 (线性值，典型 1.1-1.5)
	} `yaml:"quality"`

	// --- 会话 (Session / Processor) ---
	Session struct {
		DurationSeconds    float64 `yaml:"duration_seconds"`     // 测量阶段总时长 (秒)，到期后进入 Report
		WarmupFrames       int     `yaml:"warmup_frames"`        // 校准阶段的预热帧数，让基线追踪先收敛 (90 帧 ≈ 30fps 下 3s)
		AnalysisIntervalMs int     `yaml:"analysis_interval_ms"` // 分析节拍 (毫秒)。分析比采样昂贵，不必每帧都算
		MinBPM             float64 `yaml:"min_bpm"`              // 单窗口估计可被接受的 BPM 下限 (例如 45)
		MaxBPM             float64 `yaml:"max_bpm"`              // 单窗口估计可被接受的 BPM 上限 (例如 180)
		MinAcceptedWindows int     `yaml:"min_accepted_windows"` // 高置信度报告所需的最少已接受窗口数
		RespirationRatio   float64 `yaml:"respiration_ratio"`    // 呼吸率代理系数: respiration = bpm / ratio。经验值 4.0-4.2，无生理学定论
		StressBPMWeight    float64 `yaml:"stress_bpm_weight"`    // 压力评分中 BPM 抬升项的权重
		StressHRVWeight    float64 `yaml:"stress_hrv_weight"`    // 压力评分中 HRV 缺失项的权重
	} `yaml:"session"`
}

// DefaultConfig 返回一个包含当前最佳实践的默认配置
func DefaultConfig() *Config {
	cfg := &Config{}

	// --- 采样缓冲 ---
	cfg.Buffer.Capacity = 512

	// --- 滤波 ---
	cfg.Filter.BaselineAlpha = 0.05
	cfg.Filter.SmoothingRadius = 3

	// --- 频谱分析 ---
	cfg.Spectrum.MinBPM = 40.0  // 0.67 Hz
	cfg.Spectrum.MaxBPM = 200.0 // 3.33 Hz
	cfg.Spectrum.WindowSeconds = 8.0
	cfg.Spectrum.MinSamples = 64
	cfg.Spectrum.MaxJumpBPM = 20.0
	cfg.Spectrum.SmoothKeep = 0.8

	// --- 峰值检测 ---
	cfg.Peaks.MinIntervalMs = 300.0  // 200 BPM
	cfg.Peaks.MaxIntervalMs = 1300.0 // ~45 BPM

	// --- 质量门控 ---
	cfg.Quality.VarianceFloor = 1e-4
	cfg.Quality.SNRThreshold = 1.2

	// --- 会话 ---
	cfg.Session.DurationSeconds = 30.0
	cfg.Session.WarmupFrames = 90 // 30fps 下约 3 秒
	cfg.Session.AnalysisIntervalMs = 500
	cfg.Session.MinBPM = 45.0
	cfg.Session.MaxBPM = 180.0
	cfg.Session.MinAcceptedWindows = 6
	cfg.Session.RespirationRatio = 4.2
	cfg.Session.StressBPMWeight = 0.6
	cfg.Session.StressHRVWeight = 0.4

	return cfg
}

// LoadConfig 从 YAML 文件加载配置
// 文件中未出现的字段保持默认值，方便只覆盖个别阈值
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	return cfg, nil
}

// MinFreq 返回心率搜索下限对应的频率 (Hz)
func (c *Config) MinFreq() float64 { return c.Spectrum.MinBPM / 60.0 }

// MaxFreq 返回心率搜索上限对应的频率 (Hz)
func (c *Config) MaxFreq() float64 { return c.Spectrum.MaxBPM / 60.0 }

// AnalysisInterval 返回分析节拍的 time.Duration 形式
func (c *Config) AnalysisInterval() time.Duration {
	return time.Duration(c.Session.AnalysisIntervalMs) * time.Millisecond
}
