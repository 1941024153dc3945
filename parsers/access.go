// Copyright 2016 Qubit Digital Ltd.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parsers

import (
	"strconv"
	"strings"
	"time"
)

const accessTimeLayout = "02/Jan/2006:15:04:05 -0700"

// parseAccessLog reads the common and combined access log formats written
// by nginx and apache:
//
//	addr ident user [time] "request" status bytes "referer" "agent" ["xff"]
//
// The referer and agent are required.
func parseAccessLog(line string) (map[string]interface{}, bool) {
	addr, rest, ok := cut(line, ' ')
	if !ok || addr == "" {
		return nil, false
	}
	rest = strings.TrimLeft(rest, "-")
	rest = strings.TrimLeft(rest, " ")

	user, rest, ok := cut(rest, ' ')
	if !ok {
		return nil, false
	}
	rest = strings.TrimLeft(rest, " ")

	if !strings.HasPrefix(rest, "[") {
		return nil, false
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return nil, false
	}
	rawTime := rest[1:end]
	rest = strings.TrimLeft(rest[end+1:], " ")

	if !strings.HasPrefix(rest, "\"") {
		return nil, false
	}
	end = strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return nil, false
	}
	request := rest[1 : end+1]
	rest = strings.TrimLeft(rest[end+2:], " ")

	status, rest, ok := cut(rest, ' ')
	if !ok {
		return nil, false
	}
	bytesSent, rest, ok := cut(rest, ' ')
	if !ok {
		return nil, false
	}
	referer, rest, ok := quoted(rest)
	if !ok {
		return nil, false
	}
	agent, rest, ok := quoted(rest)
	if !ok {
		return nil, false
	}

	m := make(map[string]interface{}, 14)
	m["remote_addr"] = addr
	m["remote_user"] = user
	m["time_local"] = rawTime
	if t, err := time.Parse(accessTimeLayout, rawTime); err == nil {
		m["timestamp"] = t.Format(time.RFC3339)
	} else {
		m["timestamp"] = rawTime
	}

	method, path, proto := "-", "-", "-"
	parts := strings.Fields(request)
	if len(parts) > 0 {
		method = parts[0]
	}
	if len(parts) > 1 {
		path = parts[1]
	}
	if len(parts) > 2 {
		proto = strings.Join(parts[2:], " ")
	}
	m["method"] = method
	m["path"] = path
	m["protocol"] = proto

	if n, err := strconv.ParseUint(status, 10, 64); err == nil {
		m["status"] = float64(n)
		m["level"] = statusLevel(n)
	}
	if n, err := strconv.ParseUint(bytesSent, 10, 64); err == nil {
		m["body_bytes_sent"] = float64(n)
	}

	m["http_referer"] = referer
	m["http_user_agent"] = agent
	if rest != "" {
		if xff, _, ok := quoted(rest); ok {
			m["x_forwarded_for"] = xff
		}
	}

	return m, true
}

func statusLevel(status uint64) string {
	switch {
	case status >= 500:
		return "ERROR"
	case status >= 400:
		return "WARN"
	}
	return "INFO"
}

func cut(s string, sep byte) (string, string, bool) {
	i := strings.IndexByte(s, sep)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// quoted returns the text between the next pair of double quotes.
func quoted(s string) (string, string, bool) {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return "", "", false
	}
	s = s[start+1:]
	end := strings.IndexByte(s, '"')
	if end < 0 {
		return "", "", false
	}
	return s[:end], strings.TrimLeft(s[end+1:], " "), true
}
