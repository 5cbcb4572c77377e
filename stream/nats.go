package stream

import (
	"time"

	"github.com/nats-io/nats.go"
)

// 流式 demo 使用的 NATS 主题
const (
	SubjectFrames   = "rppg.frames"   // 二进制 float32 LE 采样帧
	SubjectFiltered = "rppg.filtered" // 二进制 float32 LE 滤波后波形 (供前端画图)
	SubjectMetrics  = "rppg.metrics"  // JSON 实时估计 / 最终报告
)

// ChunkTimestamps 给一块批量到达的采样分配时间戳
// 传输按 chunk 攒批，到达时刻只有一个；按 fps 从 now 向前回推，
// 块内间距为 1/fps，最后一帧落在 now 上，保证下游的动态采样率成立
// fps <= 0 时不回推，整块都落在到达时刻 (退化为原始行为)
func ChunkTimestamps(now time.Time, count int, fps float64) []time.Time {
	ts := make([]time.Time, count)
	var spacing time.Duration
	if fps > 0 {
		spacing = time.Duration(float64(time.Second) / fps)
	}
	for i := 0; i < count; i++ {
		ts[i] = now.Add(-time.Duration(count-1-i) * spacing)
	}
	return ts
}

// Connect 建立带重连的 NATS 连接
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("rppg-stream"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
}
