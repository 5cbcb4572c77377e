package rppg

import "time"

// Sample 代表采集层送来的一帧皮肤区域颜色采样
// Value 是已归约的标量 (例如 g - r)，Timestamp 来自采集端的墙钟
// HasFace 是采集端皮肤分类器给出的质量提示，false 表示该帧没有检测到人脸
type Sample struct {
	Value     float64
	Timestamp time.Time
	HasFace   bool
}

// SampleFromRGB 将一帧 RGB 均值归约为标量采样
// 绿色通道对血容积变化最敏感，红色通道用来抵消整体光照变化，
// 因此采用 g - r 作为脉搏波代理
func SampleFromRGB(r, g, b float64, ts time.Time) Sample {
	_ = b // 蓝色通道信噪比最差，不参与归约
	return Sample{Value: g - r, Timestamp: ts, HasFace: true}
}

// SampleStore 有界的时间有序采样缓冲区
// values 和 timestamps 平行存放，长度始终一致；超出容量时 FIFO 淘汰最旧的一帧
type SampleStore struct {
	capacity   int
	values     []float64
	timestamps []time.Time
}

// NewSampleStore 创建实例，capacity <= 0 时使用默认容量
func NewSampleStore(capacity int) *SampleStore {
	if capacity <= 0 {
		capacity = DefaultConfig().Buffer.Capacity
	}
	return &SampleStore{
		capacity:   capacity,
		values:     make([]float64, 0, capacity),
		timestamps: make([]time.Time, 0, capacity),
	}
}

// Add 追加一帧采样，必要时淘汰最旧的一帧
// 淘汰只把切片头部前移；底层数组写满后由 append 的再分配统一搬迁，摊还 O(1)
func (s *SampleStore) Add(value float64, ts time.Time) {
	if len(s.values) >= s.capacity {
		s.values = s.values[1:]
		s.timestamps = s.timestamps[1:]
	}
	s.values = append(s.values, value)
	s.timestamps = append(s.timestamps, ts)
}

// Len 返回当前缓冲的采样数
func (s *SampleStore) Len() int {
	return len(s.values)
}

// Snapshot 返回当前有序的采样值和时间戳视图
// 调用方只读；单线程调度模型下不存在读取中途被修改的问题
func (s *SampleStore) Snapshot() ([]float64, []time.Time) {
	return s.values, s.timestamps
}

// Duration 返回缓冲区首尾两帧之间的墙钟时长
func (s *SampleStore) Duration() time.Duration {
	if len(s.timestamps) < 2 {
		return 0
	}
	return s.timestamps[len(s.timestamps)-1].Sub(s.timestamps[0])
}

// SampleRate 根据实际墙钟时间动态计算有效采样率 (Hz)
// 摄像头帧率不保证稳定，绝不能假设常数采样率
// 时长为零 (退化输入) 时返回 0，调用方应短路为 "无估计"
func (s *SampleStore) SampleRate() float64 {
	d := s.Duration().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(len(s.values)-1) / d
}

// Reset 清空缓冲区，会话复位时调用
func (s *SampleStore) Reset() {
	s.values = s.values[:0]
	s.timestamps = s.timestamps[:0]
}
