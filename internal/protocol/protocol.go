/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package protocol implements the ToyQuery line protocol framing.

Protocol Overview:
==================

Requests are single lines terminated by '\n'. Responses may span several
lines (a SELECT returns a whole table), so every response is terminated by
a newline followed by the end-of-transmission byte 0x04:

	client: SELECT * FROM t;\n
	server: [OK] 1 record(s) found.\nid\ta\n1\tx\n\n\x04

Control Lines:
==============

	PING             -> PONG
	AUTH <password>  -> AUTH OK | [ERROR] Authentication failed.
	QUIT             -> BYE (then the server closes the connection)

Any other line is a command.
*/
package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// EOT terminates every response.
const EOT byte = 0x04

// MaxLineSize bounds a request line.
const MaxLineSize = 1024 * 1024

// Control commands and their replies.
const (
	CmdPing = "PING"
	CmdAuth = "AUTH"
	CmdQuit = "QUIT"

	ReplyPong   = "PONG"
	ReplyAuthOK = "AUTH OK"
	ReplyBye    = "BYE"
)

// ErrInvalidResponse is returned when a response contains the EOT byte
// before its end.
var ErrInvalidResponse = errors.New("invalid response framing")

// WriteResponse writes one framed response.
func WriteResponse(w io.Writer, response string) error {
	buf := make([]byte, 0, len(response)+2)
	buf = append(buf, response...)
	buf = append(buf, '\n', EOT)
	_, err := w.Write(buf)
	return err
}

// ReadResponse reads one framed response and returns it without the
// trailing newline and EOT byte.
func ReadResponse(r *bufio.Reader) (string, error) {
	data, err := r.ReadString(EOT)
	if err != nil {
		if err == io.EOF && data != "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	data = data[:len(data)-1]
	return strings.TrimSuffix(data, "\n"), nil
}

// WriteRequest writes one request line. Embedded newlines are replaced
// by spaces so a multi-line command stays one request.
func WriteRequest(w io.Writer, line string) error {
	line = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(line)
	_, err := io.WriteString(w, line+"\n")
	return err
}

// SplitControl splits a request line into its upper-cased first word and
// the remainder.
func SplitControl(line string) (word, rest string) {
	line = strings.TrimSpace(line)
	word, rest, _ = strings.Cut(line, " ")
	return strings.ToUpper(word), strings.TrimSpace(rest)
}
