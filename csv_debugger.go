package rppg

import (
	"bufio"
	"fmt"
	"os"
)

// SignalDebugger 定义调试器接口
// 处理器只依赖这个接口，不依赖具体的文件操作
type SignalDebugger interface {
	Record(raw, filtered, bpm, snr float64, accepted bool)
	Close()
}

// CsvFileDebugger 是 SignalDebugger 的具体实现
// 每个分析 tick 记录一行，用于离线调阈值 (方差下限/SNR 门限)
type CsvFileDebugger struct {
	file   *os.File
	writer *bufio.Writer
	lines  int
}

// NewCsvFileDebugger 创建一个新的 CSV 调试器
func NewCsvFileDebugger(filename string) (*CsvFileDebugger, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(f)
	// 写入表头
	if _, err := w.WriteString("RawTail,FilteredTail,BPM,SNR,Accepted\n"); err != nil {
		f.Close()
		return nil, err
	}

	return &CsvFileDebugger{
		file:   f,
		writer: w,
	}, nil
}

// Record 记录一次分析 tick 的数据
func (d *CsvFileDebugger) Record(raw, filtered, bpm, snr float64, accepted bool) {
	acceptedVal := 0
	if accepted {
		acceptedVal = 1
	}
	fmt.Fprintf(d.writer, "%f,%f,%f,%f,%d\n", raw, filtered, bpm, snr, acceptedVal)

	d.lines++
	// 定期刷新，防止程序异常退出导致数据丢失
	if d.lines%64 == 0 {
		d.writer.Flush()
	}
}

// Close 关闭文件并刷新缓冲区
func (d *CsvFileDebugger) Close() {
	if d.writer != nil {
		d.writer.Flush()
	}
	if d.file != nil {
		d.file.Close()
	}
}

// NoOpDebugger 是一个空实现，用于生产环境（不记录数据时使用）
// 这样可以避免在核心代码中写大量的 if d.debugger != nil check
type NoOpDebugger struct{}

func (d *NoOpDebugger) Record(raw, filtered, bpm, snr float64, accepted bool) {}
func (d *NoOpDebugger) Close()                                               {}
