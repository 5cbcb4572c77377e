package main

import (
	"encoding/binary"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"rppg"
	"rppg/stream"
)

func main() {
	var (
		natsURL = flag.String("nats", "nats://127.0.0.1:4222", "NATS url")
		bpm     = flag.Float64("bpm", 72.0, "simulated heart rate")
		fps     = flag.Float64("fps", 30.0, "simulated camera frame rate")
		noise   = flag.Float64("noise", 0.1, "noise amplitude")
		chunk   = flag.Int("chunk", 10, "samples per message")
	)
	flag.Parse()

	nc, err := stream.Connect(*natsURL)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Drain()

	sim := rppg.NewPPGSim(*fps, *bpm, *noise)

	// 按 chunk 大小计算发布间隔，模拟摄像头的实时节奏
	interval := time.Duration(float64(*chunk) / *fps * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	log.Printf("producer running: %.0f BPM @ %.0f fps -> %s", *bpm, *fps, stream.SubjectFrames)

	buf := make([]byte, *chunk*4)
	for {
		select {
		case <-sigChan:
			log.Println("producer stopped")
			return
		case <-ticker.C:
			for i := 0; i < *chunk; i++ {
				bits := math.Float32bits(float32(sim.Next()))
				binary.LittleEndian.PutUint32(buf[i*4:], bits)
			}
			if err := nc.Publish(stream.SubjectFrames, buf); err != nil {
				log.Printf("publish failed: %v", err)
			}
		}
	}
}
