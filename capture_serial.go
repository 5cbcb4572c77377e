package rppg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// SerialPort 定义串口操作接口，方便测试 Mock
type SerialPort interface {
	io.ReadWriteCloser
}

// SerialSource 从串口读取接触式 PPG 传感器 (Arduino 脉搏模块等) 的采样
// 行协议 (ASCII，换行分隔)，两种形式都接受:
//   r,g,b   -> 按 g - r 归约为标量
//   value   -> 直接作为标量
// 主要用途是拿接触式传感器当参考源，和摄像头链路对照调参
type SerialSource struct {
	Port     string
	BaudRate int
	conn     SerialPort
}

// NewSerialSource 创建实例
func NewSerialSource(port string, baudRate int) *SerialSource {
	return &SerialSource{
		Port:     port,
		BaudRate: baudRate,
	}
}

// Open 打开串口连接
func (s *SerialSource) Open() error {
	config := &serial.Config{
		Name:        s.Port,
		Baud:        s.BaudRate,
		ReadTimeout: time.Millisecond * 500,
	}
	conn, err := serial.OpenPort(config)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// Close 关闭串口连接
func (s *SerialSource) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Run 持续读取串口并把每帧采样交给回调，时间戳取本机墙钟
// 读到 EOF 或连接错误时返回；格式错误的行跳过不中断
func (s *SerialSource) Run(fn func(Sample)) error {
	if s.conn == nil {
		return fmt.Errorf("serial port not open")
	}

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		sample, err := ParseSerialLine(scanner.Text(), time.Now())
		if err != nil {
			// 串口上行噪声很常见 (半截行/乱码)，丢弃即可
			continue
		}
		fn(sample)
	}
	return scanner.Err()
}

// ParseSerialLine 解析一行传感器输出
func ParseSerialLine(line string, ts time.Time) (Sample, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Sample{}, fmt.Errorf("empty line")
	}

	fields := strings.Split(line, ",")
	switch len(fields) {
	case 1:
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Sample{}, fmt.Errorf("bad scalar: %v", err)
		}
		return Sample{Value: v, Timestamp: ts, HasFace: true}, nil
	case 3:
		var rgb [3]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return Sample{}, fmt.Errorf("bad rgb component %d: %v", i, err)
			}
			rgb[i] = v
		}
		return SampleFromRGB(rgb[0], rgb[1], rgb[2], ts), nil
	default:
		return Sample{}, fmt.Errorf("expected 1 or 3 fields, got %d", len(fields))
	}
}
