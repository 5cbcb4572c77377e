package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"math"
	"time"

	"github.com/nats-io/nats.go"

	"rppg"
	"rppg/stream"
)

// MetricMsg 发布到 rppg.metrics 的消息
// Kind 区分实时估计 (estimate) 和最终报告 (report)
type MetricMsg struct {
	Kind     string               `json:"kind"`
	Ts       int64                `json:"ts"`
	Phase    string               `json:"phase"`
	Estimate *rppg.WindowEstimate `json:"estimate,omitempty"`
	Report   *rppg.Report         `json:"report,omitempty"`
}

func main() {
	var (
		natsURL    = flag.String("nats", "nats://127.0.0.1:4222", "NATS url")
		configPath = flag.String("config", "", "YAML config file (optional)")
		fps        = flag.Float64("fps", 30.0, "producer frame rate, spreads timestamps inside a chunk")
	)
	flag.Parse()

	cfg := rppg.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = rppg.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	nc, err := stream.Connect(*natsURL)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Drain()

	processor := rppg.NewProcessor(cfg)
	processor.Start()

	// 前端画波形用的流式滤波器，和处理器内部的整窗滤波互不干扰
	waveFilter := rppg.NewSignalFilter(cfg)

	_, err = nc.Subscribe(stream.SubjectFrames, func(msg *nats.Msg) {
		count := len(msg.Data) / 4
		if count == 0 {
			return
		}

		// 1. 解码并逐帧送入处理器
		// 线上格式只有采样值，块内时间戳按帧率回推，动态采样率才不失真
		raw := make([]float64, count)
		now := time.Now()
		stamps := stream.ChunkTimestamps(now, count, *fps)
		for i := 0; i < count; i++ {
			bits := binary.LittleEndian.Uint32(msg.Data[i*4:])
			raw[i] = float64(math.Float32frombits(bits))
			processor.OnSample(rppg.Sample{
				Value:     raw[i],
				Timestamp: stamps[i],
				HasFace:   true,
			})
		}

		// 2. 滤波后的波形转发给前端
		filtered := waveFilter.Apply(raw)
		out := make([]byte, len(filtered)*4)
		for i, v := range filtered {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
		}
		nc.Publish(stream.SubjectFiltered, out)

		// 3. 驱动分析节拍 (内部自己限流，这里每个 chunk 调一次即可)
		phase, est := processor.OnTick(now)

		if est != nil && est.BPM > 0 {
			publish(nc, MetricMsg{
				Kind: "estimate", Ts: now.UnixMilli(),
				Phase: phase.String(), Estimate: est,
			})
			log.Printf("estimate: %.1f BPM (snr %.2f)", est.BPM, est.SNR)
		}

		// 4. 会话结束：发布报告并自动开新会话，demo 持续运行
		if phase == rppg.PhaseReport {
			if report, ok := processor.SessionReport(); ok {
				publish(nc, MetricMsg{
					Kind: "report", Ts: now.UnixMilli(),
					Phase: phase.String(), Report: &report,
				})
				log.Printf("report: %.1f BPM, hrv %.1f ms, confidence %s",
					report.BPM, report.HRV, report.Confidence)
			}
			processor.Start()
			waveFilter.Reset()
		}
	})
	if err != nil {
		log.Fatal(err)
	}

	log.Println("processor running...")
	select {}
}

func publish(nc *nats.Conn, m MetricMsg) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	nc.Publish(stream.SubjectMetrics, b)
}
