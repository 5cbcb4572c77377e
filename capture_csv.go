package rppg

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CsvReplay 从 CSV 文件回放录制好的采样序列
// 行格式: value,timestamp_ms[,face]
//   - timestamp_ms: 相对会话起点的毫秒数
//   - face: 1/0，缺省视为 1
// 用于离线复现问题场景和调阈值，对应实时模式的录制产物
type CsvReplay struct {
	samples []Sample
	pos     int
}

// NewCsvReplay 读入整个文件；采样按文件内顺序回放
func NewCsvReplay(filename string, base time.Time) (*CsvReplay, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := &CsvReplay{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, err := parseSampleLine(line, base)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", lineNo, err)
		}
		r.samples = append(r.samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(r.samples) == 0 {
		return nil, fmt.Errorf("no samples in %s", filename)
	}
	return r, nil
}

// parseSampleLine 解析单行 value,timestamp_ms[,face]
func parseSampleLine(line string, base time.Time) (Sample, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return Sample{}, fmt.Errorf("expected value,timestamp_ms[,face], got %q", line)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("bad value: %v", err)
	}
	ms, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("bad timestamp: %v", err)
	}

	hasFace := true
	if len(fields) >= 3 && strings.TrimSpace(fields[2]) == "0" {
		hasFace = false
	}

	return Sample{
		Value:     value,
		Timestamp: base.Add(time.Duration(ms * float64(time.Millisecond))),
		HasFace:   hasFace,
	}, nil
}

// Len 返回采样总数
func (r *CsvReplay) Len() int {
	return len(r.samples)
}

// Next 返回下一帧采样；回放完毕时第二个返回值为 false
func (r *CsvReplay) Next() (Sample, bool) {
	if r.pos >= len(r.samples) {
		return Sample{}, false
	}
	s := r.samples[r.pos]
	r.pos++
	return s, true
}

// Replay 按录制时的真实节奏把采样喂给回调，用于模拟实时输入
// 两帧之间按时间戳差 sleep；测试场景直接用 Next 逐帧取即可，不会阻塞
func (r *CsvReplay) Replay(fn func(Sample)) {
	var prev time.Time
	for {
		s, ok := r.Next()
		if !ok {
			return
		}
		if !prev.IsZero() {
			if d := s.Timestamp.Sub(prev); d > 0 {
				time.Sleep(d)
			}
		}
		prev = s.Timestamp
		fn(s)
	}
}
