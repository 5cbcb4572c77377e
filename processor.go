package rppg

import "time"

// Phase 采集状态机的阶段，同一时刻只有一个阶段处于激活
type Phase int

const (
	PhaseIdle        Phase = iota // 空闲，不处理任何数据
	PhaseCalibrating              // 校准：只进采样，等基线收敛
	PhaseMeasuring                // 测量：按节拍运行完整分析管线
	PhaseReport                   // 终态：报告已生成
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCalibrating:
		return "calibrating"
	case PhaseMeasuring:
		return "measuring"
	case PhaseReport:
		return "report"
	}
	return "unknown"
}

// Processor 管理一次 rPPG 测量会话的完整生命周期
// 采集层每帧调用一次 OnSample，宿主定时器周期性调用 OnTick；
// 两个入口都返回新状态而不是隐式修改外部状态，展示层轮询即可
// 单线程协作式调度：所有阶段都是同步纯计算，没有并发访问
type Processor struct {
	cfg *Config

	// 管线组件
	store    *SampleStore
	filter   *SignalFilter
	gate     *QualityGate
	analyzer *SpectrumAnalyzer
	peaks    *PeakEstimator
	session  *SessionStats
	debugger SignalDebugger

	// 状态
	phase        Phase
	frameCount   int  // 本会话累计接收帧数
	hasFace      bool // 采集端最近一次的人脸提示
	measureStart time.Time
	lastAnalysis time.Time

	// 对展示层暴露的输出
	lastEstimate WindowEstimate
	filteredTail float64
	report       *Report
}

// NewProcessor 创建会话处理器，cfg 为 nil 时使用默认配置
func NewProcessor(cfg *Config) *Processor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Processor{
		cfg:      cfg,
		store:    NewSampleStore(cfg.Buffer.Capacity),
		filter:   NewSignalFilter(cfg),
		gate:     NewQualityGate(cfg),
		analyzer: NewSpectrumAnalyzer(cfg),
		peaks:    NewPeakEstimator(cfg),
		session:  NewSessionStats(cfg),
		debugger: &NoOpDebugger{},
		phase:    PhaseIdle,
	}
}

// SetDebugger 挂接调试记录器 (默认空实现)
func (p *Processor) SetDebugger(d SignalDebugger) {
	if d == nil {
		d = &NoOpDebugger{}
	}
	p.debugger = d
}

// Start 开始一次新会话：清空全部可变状态并进入校准阶段
func (p *Processor) Start() Phase {
	p.Reset()
	p.phase = PhaseCalibrating
	return p.phase
}

// Reset 将处理器恢复到空闲状态
// 幂等：连续调用多次、或在没有任何采样时调用都安全
// 缓冲区/基线追踪/BPM 平滑记忆全部清空，杜绝跨会话泄漏
func (p *Processor) Reset() {
	p.store.Reset()
	p.filter.Reset()
	p.analyzer.Reset()
	p.session.Reset()
	p.phase = PhaseIdle
	p.frameCount = 0
	p.hasFace = false
	p.measureStart = time.Time{}
	p.lastAnalysis = time.Time{}
	p.lastEstimate = WindowEstimate{}
	p.filteredTail = 0
	p.report = nil
}

// OnSample 采集层每帧调用一次，返回当前阶段
// 采样严格按到达顺序进入缓冲区；Idle/Report 阶段直接丢弃
func (p *Processor) OnSample(s Sample) Phase {
	if p.phase != PhaseCalibrating && p.phase != PhaseMeasuring {
		return p.phase
	}

	p.store.Add(s.Value, s.Timestamp)
	p.frameCount++
	p.hasFace = s.HasFace

	// 校准 -> 测量：预热帧数攒够即可
	// 目的只有一个：让滤波器的基线扣除先收敛，再信任它的输出
	if p.phase == PhaseCalibrating && p.frameCount >= p.cfg.Session.WarmupFrames {
		p.phase = PhaseMeasuring
		p.measureStart = s.Timestamp
	}

	return p.phase
}

// OnTick 宿主定时器周期性调用 (例如每秒一次)
// 测量阶段内按 AnalysisInterval 节拍运行分析；分析相对采样昂贵，
// 跳过中间帧是安全的，因为每次都从缓冲区重新取整窗计算
// 返回当前阶段和本次 tick 产出的估计 (没有新估计时为 nil)
func (p *Processor) OnTick(now time.Time) (Phase, *WindowEstimate) {
	if p.phase != PhaseMeasuring {
		return p.phase, nil
	}

	// 测量时长已到 -> 生成报告并进入终态 (报告只生成一次)
	if !p.measureStart.IsZero() &&
		now.Sub(p.measureStart).Seconds() >= p.cfg.Session.DurationSeconds {
		r := p.session.Report()
		p.report = &r
		p.phase = PhaseReport
		return p.phase, nil
	}

	// 节拍限流
	if !p.lastAnalysis.IsZero() && now.Sub(p.lastAnalysis) < p.cfg.AnalysisInterval() {
		return p.phase, nil
	}
	p.lastAnalysis = now

	est := p.analyzeWindow()
	return p.phase, &est
}

// analyzeWindow 对缓冲区当前内容跑一遍完整分析管线
// 所有失败路径 (数据不足/低质量/退化输入) 都在这里就地恢复为零估计
func (p *Processor) analyzeWindow() WindowEstimate {
	values, _ := p.store.Snapshot()
	sampleRate := p.store.SampleRate()

	// 数据不足或时间跨度退化，继续等待
	if len(values) < p.cfg.Spectrum.MinSamples || sampleRate <= 0 {
		p.lastEstimate = WindowEstimate{}
		return p.lastEstimate
	}

	// 1. 滤波 (整窗去基线 + 平滑)
	filtered := p.filter.ApplyBatch(values)

	// 2. 质量门控：静态场景或没有人脸，本窗口不产出任何指标
	if !p.gate.Accept(filtered, p.hasFace) {
		p.lastEstimate = WindowEstimate{}
		p.debugger.Record(values[len(values)-1], 0, 0, 0, false)
		return p.lastEstimate
	}

	// 3. 频域心率 + 信噪比
	bpm, snr, _ := p.analyzer.Analyze(filtered, sampleRate)

	// 4. 时域峰值 -> RMSSD
	peakIdx := p.peaks.FindPeaks(filtered)
	rmssd := p.peaks.RMSSD(peakIdx, sampleRate)

	est := WindowEstimate{BPM: bpm, RMSSD: rmssd, SNR: snr}

	// 5. 会话累积 (门控不过的窗口静默跳过，测量继续)
	accepted := p.session.Accumulate(est)

	p.lastEstimate = est
	p.filteredTail = filtered[len(filtered)-1]
	p.debugger.Record(values[len(values)-1], p.filteredTail, est.BPM, est.SNR, accepted)

	return est
}

// CurrentPhase 返回当前阶段
func (p *Processor) CurrentPhase() Phase {
	return p.phase
}

// LiveEstimate 返回最近一次分析 tick 的估计，供展示层画实时数值
func (p *Processor) LiveEstimate() WindowEstimate {
	return p.lastEstimate
}

// FilteredTail 返回最近一次分析的滤波信号尾值，供展示层画波形
func (p *Processor) FilteredTail() float64 {
	return p.filteredTail
}

// SessionReport 返回最终报告；只有进入 Report 阶段后才有值
func (p *Processor) SessionReport() (Report, bool) {
	if p.report == nil {
		return Report{}, false
	}
	return *p.report, true
}

// BufferedSamples 返回当前缓冲的采样数，供展示层画进度
func (p *Processor) BufferedSamples() int {
	return p.store.Len()
}
