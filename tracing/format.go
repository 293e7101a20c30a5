// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package tracing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/algorand/nodetrace/tracing/tracespec"
)

// textTimeLayout renders timestamps as 2021-01-02 03:04:05.00 UTC.
const textTimeLayout = "2006-01-02 15:04:05.00 UTC"

var bufferPool = buffer.NewPool()

// origin identifies the process a record comes from.
type origin struct {
	host    string
	pid     int
	session string
}

// formatter turns an event into one record. The caller frees the returned buffer.
type formatter interface {
	format(ev *tracespec.Event) (*buffer.Buffer, error)
}

func makeFormatter(f tracespec.ScribeFormat, o origin) formatter {
	if f == tracespec.ScJson {
		return makeJSONFormatter(o)
	}
	return textFormatter{origin: o}
}

// textFormatter writes
//
//	[host:namespace:Severity:pid] [2021-01-02 03:04:05.00 UTC] message key=value ...
type textFormatter struct {
	origin
}

var textEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`)

func (tf textFormatter) format(ev *tracespec.Event) (*buffer.Buffer, error) {
	buf := bufferPool.Get()
	buf.AppendByte('[')
	buf.AppendString(tf.host)
	buf.AppendByte(':')
	buf.AppendString(string(ev.Namespace))
	buf.AppendByte(':')
	buf.AppendString(ev.Severity.String())
	buf.AppendByte(':')
	buf.AppendInt(int64(tf.pid))
	buf.AppendString("] [")
	buf.AppendTime(ev.Timestamp.UTC(), textTimeLayout)
	buf.AppendString("] ")
	buf.AppendString(textEscaper.Replace(ev.Message))
	for _, k := range ev.Fields.SortedKeys() {
		buf.AppendByte(' ')
		buf.AppendString(k)
		buf.AppendByte('=')
		appendTextValue(buf, ev.Fields[k])
	}
	buf.AppendByte('\n')
	return buf, nil
}

func appendTextValue(buf *buffer.Buffer, v interface{}) {
	var s string
	switch v := v.(type) {
	case string:
		s = v
	case bool:
		buf.AppendBool(v)
		return
	case int:
		buf.AppendInt(int64(v))
		return
	case int64:
		buf.AppendInt(v)
		return
	case uint64:
		buf.AppendUint(v)
		return
	case float64:
		buf.AppendFloat(v, 64)
		return
	case time.Duration:
		s = v.String()
	case time.Time:
		s = v.UTC().Format(time.RFC3339Nano)
	default:
		s = fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " =\"\n\r\t") {
		s = strconv.Quote(s)
	}
	buf.AppendString(s)
}

// jsonFormatter writes one object per line with the keys
// at, ns, msg, sev, host, pid, session and data.
type jsonFormatter struct {
	origin
	enc zapcore.Encoder
}

func makeJSONFormatter(o origin) jsonFormatter {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "at",
		NameKey:        "ns",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	})
	return jsonFormatter{origin: o, enc: enc}
}

func (jf jsonFormatter) format(ev *tracespec.Event) (*buffer.Buffer, error) {
	entry := zapcore.Entry{
		LoggerName: string(ev.Namespace),
		Time:       ev.Timestamp.UTC(),
		Message:    ev.Message,
	}
	return jf.enc.EncodeEntry(entry, []zapcore.Field{
		zap.String("sev", ev.Severity.String()),
		zap.String("host", jf.host),
		zap.Int("pid", jf.pid),
		zap.String("session", jf.session),
		zap.Object("data", eventData(ev.Fields)),
	})
}

type eventData tracespec.Fields

func (d eventData) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for _, k := range tracespec.Fields(d).SortedKeys() {
		zap.Any(k, d[k]).AddTo(enc)
	}
	return nil
}
