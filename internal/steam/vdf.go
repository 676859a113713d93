package steam

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeyValues is a parsed Valve KeyValues (VDF) block. Values are either
// strings or nested KeyValues.
type KeyValues map[string]any

// Block returns the nested block stored under key
func (kv KeyValues) Block(key string) (KeyValues, bool) {
	v, ok := kv[key].(KeyValues)
	return v, ok
}

// String returns the string stored under key
func (kv KeyValues) String(key string) string {
	s, _ := kv[key].(string)
	return s
}

var errUnexpectedEOF = errors.New("vdf: unexpected end of input")

// ParseVDF reads a text VDF document such as libraryfolders.vdf or an
// appmanifest_*.acf file. Keys are case-sensitive; later duplicates win.
func ParseVDF(r io.Reader) (KeyValues, error) {
	lx := &lexer{r: bufio.NewReader(r)}
	root := make(KeyValues)
	if err := lx.block(root, false); err != nil {
		return nil, err
	}
	return root, nil
}

type token struct {
	text   string
	quoted bool
}

type lexer struct {
	r    *bufio.Reader
	line int
}

func (lx *lexer) block(into KeyValues, nested bool) error {
	for {
		key, err := lx.next()
		if err == io.EOF {
			if nested {
				return errUnexpectedEOF
			}
			return nil
		}
		if err != nil {
			return err
		}
		if !key.quoted && key.text == "}" {
			if !nested {
				return fmt.Errorf("vdf: line %d: unmatched }", lx.line+1)
			}
			return nil
		}
		if !key.quoted && key.text == "{" {
			return fmt.Errorf("vdf: line %d: block without key", lx.line+1)
		}

		val, err := lx.next()
		if err == io.EOF {
			return errUnexpectedEOF
		}
		if err != nil {
			return err
		}
		if !val.quoted && val.text == "{" {
			child := make(KeyValues)
			if err := lx.block(child, true); err != nil {
				return err
			}
			into[key.text] = child
			continue
		}
		into[key.text] = val.text
	}
}

func (lx *lexer) next() (token, error) {
	for {
		c, err := lx.r.ReadByte()
		if err != nil {
			return token{}, err
		}
		switch {
		case c == '\n':
			lx.line++
		case c == ' ' || c == '\t' || c == '\r':
		case c == '/':
			if p, _ := lx.r.Peek(1); len(p) == 1 && p[0] == '/' {
				if _, err := lx.r.ReadString('\n'); err != nil && err != io.EOF {
					return token{}, err
				}
				lx.line++
				continue
			}
			return lx.bare(c)
		case c == '{' || c == '}':
			return token{text: string(c)}, nil
		case c == '"':
			return lx.quoted()
		default:
			return lx.bare(c)
		}
	}
}

func (lx *lexer) quoted() (token, error) {
	var b strings.Builder
	for {
		c, err := lx.r.ReadByte()
		if err == io.EOF {
			return token{}, fmt.Errorf("vdf: line %d: unclosed quote", lx.line+1)
		}
		if err != nil {
			return token{}, err
		}
		switch c {
		case '"':
			return token{text: b.String(), quoted: true}, nil
		case '\\':
			esc, err := lx.r.ReadByte()
			if err != nil {
				return token{}, fmt.Errorf("vdf: line %d: unclosed quote", lx.line+1)
			}
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
		case '\n':
			lx.line++
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
}

func (lx *lexer) bare(first byte) (token, error) {
	b := []byte{first}
	for {
		c, err := lx.r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return token{}, err
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '"' || c == '{' || c == '}' {
			if err := lx.r.UnreadByte(); err != nil {
				return token{}, err
			}
			break
		}
		b = append(b, c)
	}
	return token{text: string(b)}, nil
}
