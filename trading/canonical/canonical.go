// Package canonical 把参数集渲染成确定性的字符串：POST 用紧凑 JSON，GET 用 key=value 查询串。
// 同一个字符串既参与签名也原样发送。
package canonical

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Body 渲染紧凑 JSON（字段按插入顺序，嵌套结构完整展开，不做 HTML 转义）
func Body(p Params) string {
	var buf bytes.Buffer
	writeObject(&buf, p)
	return buf.String()
}

// Query 渲染查询串 k1=v1&k2=v2，键按字典序排列，值取默认字符串形式，不做 URL 转义
// 参数集为空时返回 ok=false，调用方不应拼接 "?"
func Query(p Params) (query string, ok bool) {
	if p.IsEmpty() {
		return "", false
	}
	fields := p.Fields()
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })

	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(f.Key)
		sb.WriteByte('=')
		sb.WriteString(f.Value.String())
	}
	return sb.String(), true
}

func writeObject(buf *bytes.Buffer, p Params) {
	buf.WriteByte('{')
	for i, f := range p.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, f.Key)
		buf.WriteByte(':')
		writeValue(buf, f.Value)
	}
	buf.WriteByte('}')
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindString:
		writeString(buf, v.s)
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindNumber:
		buf.WriteString(v.d.String())
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindObject:
		writeObject(buf, v.obj)
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, e)
		}
		buf.WriteByte(']')
	default:
		buf.WriteString("null")
	}
}

func writeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	// 字符串编码不会失败
	_ = enc.Encode(s)
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
}
