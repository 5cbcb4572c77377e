package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"rppg"
)

func main() {
	// 1. 解析命令行参数
	configPath := flag.String("config", "", "YAML config file (optional)")
	replayFile := flag.String("file", "", "replay a recorded value,timestamp_ms[,face] CSV")
	simBPM := flag.Float64("sim-bpm", 72.0, "synthetic mode: simulated heart rate")
	simFPS := flag.Float64("sim-fps", 30.0, "synthetic mode: simulated camera frame rate")
	debugCsv := flag.String("debug-csv", "", "write per-tick analysis trace to this CSV file")
	flag.Parse()

	// 2. 加载配置
	cfg := rppg.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = rppg.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Config load failed: %v", err)
		}
	}

	// 3. 初始化处理器
	processor := rppg.NewProcessor(cfg)
	if *debugCsv != "" {
		dbg, err := rppg.NewCsvFileDebugger(*debugCsv)
		if err != nil {
			log.Fatalf("Debugger init failed: %v", err)
		}
		defer dbg.Close()
		processor.SetDebugger(dbg)
	}

	processor.Start()
	fmt.Printf("Session started (%.0fs measuring, %d warmup frames)\n",
		cfg.Session.DurationSeconds, cfg.Session.WarmupFrames)

	// 4. 选择采样来源：CSV 回放或合成信号
	// 合成模式下时间直接按帧序号推进，不等真实墙钟，立刻出结果
	if *replayFile != "" {
		runReplay(processor, *replayFile)
	} else {
		fmt.Printf("Mode: SYNTHETIC (%.0f BPM @ %.0f fps)\n", *simBPM, *simFPS)
		runSynthetic(processor, cfg, *simBPM, *simFPS)
	}

	// 5. 输出最终报告
	report, ok := processor.SessionReport()
	if !ok {
		log.Fatal("Session ended without a report (not enough data?)")
	}
	fmt.Println("\n--- REPORT ---")
	fmt.Printf("Heart rate : %.1f BPM\n", report.BPM)
	fmt.Printf("HRV (RMSSD): %.1f ms\n", report.HRV)
	fmt.Printf("Stress     : %.1f / 100\n", report.Stress)
	fmt.Printf("Respiration: %.1f /min\n", report.Respiration)
	fmt.Printf("Confidence : %s (%d windows)\n", report.Confidence, report.Windows)
}

// runSynthetic 用合成 PPG 信号驱动一个完整会话
func runSynthetic(p *rppg.Processor, cfg *rppg.Config, bpm, fps float64) {
	sim := rppg.NewPPGSim(fps, bpm, 0.1)
	base := time.Now()

	totalFrames := int((cfg.Session.DurationSeconds + 5.0) * fps) // 留出校准余量
	tickEvery := int(fps * cfg.AnalysisInterval().Seconds())
	if tickEvery < 1 {
		tickEvery = 1
	}

	for i := 0; i < totalFrames; i++ {
		s := sim.NextSample(base)
		p.OnSample(s)

		if i%tickEvery == 0 {
			phase, est := p.OnTick(s.Timestamp)
			if est != nil && est.BPM > 0 {
				fmt.Printf("[%s] bpm=%.1f rmssd=%.1f snr=%.2f\n",
					phase, est.BPM, est.RMSSD, est.SNR)
			}
			if phase == rppg.PhaseReport {
				return
			}
		}
	}
}

// runReplay 按录制顺序回放 CSV，并用采样自身的时间戳驱动分析节拍
func runReplay(p *rppg.Processor, filename string) {
	replay, err := rppg.NewCsvReplay(filename, time.Now())
	if err != nil {
		log.Fatalf("Replay open failed: %v", err)
	}
	fmt.Printf("Mode: REPLAY (%s, %d samples)\n", filename, replay.Len())

	for {
		s, ok := replay.Next()
		if !ok {
			return
		}
		p.OnSample(s)

		phase, est := p.OnTick(s.Timestamp)
		if est != nil && est.BPM > 0 {
			fmt.Printf("[%s] bpm=%.1f rmssd=%.1f snr=%.2f\n",
				phase, est.BPM, est.RMSSD, est.SNR)
		}
		if phase == rppg.PhaseReport {
			return
		}
	}
}
