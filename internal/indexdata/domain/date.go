package domain

import "time"

// DateLayout 成分有效期使用的日历日期格式
const DateLayout = "2006-01-02"

// ParseDate 解析日历日期，失败时返回 InvalidDateError
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, &InvalidDateError{Value: value}
	}
	return t, nil
}

// TruncateDate 归一化到 UTC 零点，保证日期比较不受时分秒干扰
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
