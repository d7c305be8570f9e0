package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Done 流结束标记
const Done = "[DONE]"

const dataPrefix = "data: "

// SetHeaders 设置 text/event-stream 响应头
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
}

// Writer 逐帧写出 `data: <payload>\n\n` 并立即 flush
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

func NewWriter(w io.Writer) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// WriteJSON 以 JSON 编码 v 作为一帧写出，不转义 HTML 字符
func (w *Writer) WriteJSON(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return w.WriteData(strings.TrimRight(buf.String(), "\n"))
}

// WriteData 写出一帧原始数据
func (w *Writer) WriteData(data string) error {
	if _, err := io.WriteString(w.w, dataPrefix+data+"\n\n"); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// WriteDone 写出结束标记
func (w *Writer) WriteDone() error {
	return w.WriteData(Done)
}

// ErrIncomplete 流在收到结束标记之前被关闭
var ErrIncomplete = errors.New("event stream ended before completion sentinel")

// Reader 读取 `data:` 帧
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next 返回下一帧的数据部分
// 多行 data 以换行拼接；帧之间读到 EOF 返回 io.EOF，帧未以空行结束就 EOF 返回 io.ErrUnexpectedEOF
func (r *Reader) Next() (string, error) {
	var lines []string
	for {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && (len(lines) > 0 || line != "") {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), nil
			}
			continue
		}
		if strings.HasPrefix(line, "data:") {
			lines = append(lines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		// 忽略注释行以及 event/id/retry 字段
	}
}
