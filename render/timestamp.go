package render

import "time"

// AppendTimestamp renders nanoseconds since the Unix epoch in the fixed
// layout "2006-01-02 15:04:05,000" (UTC, millisecond resolution, comma
// separator).
func AppendTimestamp(b *Buffer, nanos int64) {
	t := time.Unix(0, nanos).UTC()
	year, month, day := t.Date()
	if year < 0 || year > 9999 {
		b.AppendString(t.Format("2006-01-02 15:04:05") + ",000")
		return
	}
	hour, min, sec := t.Clock()
	millis := t.Nanosecond() / int(time.Millisecond)
	b.reserve(23)
	b.buf = appendFourDigits(b.buf, year)
	b.buf = append(b.buf, '-')
	b.buf = appendTwoDigits(b.buf, int(month))
	b.buf = append(b.buf, '-')
	b.buf = appendTwoDigits(b.buf, day)
	b.buf = append(b.buf, ' ')
	b.buf = appendTwoDigits(b.buf, hour)
	b.buf = append(b.buf, ':')
	b.buf = appendTwoDigits(b.buf, min)
	b.buf = append(b.buf, ':')
	b.buf = appendTwoDigits(b.buf, sec)
	b.buf = append(b.buf, ',')
	b.buf = appendTwoDigits(b.buf, millis/10)
	b.buf = append(b.buf, byte('0'+millis%10))
}

func appendFourDigits(buf []byte, v int) []byte {
	buf = appendTwoDigits(buf, v/100)
	return appendTwoDigits(buf, v%100)
}

func appendTwoDigits(buf []byte, v int) []byte {
	return append(buf, byte('0'+v/10), byte('0'+v%10))
}
