package record

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EmptyCodePolicy decides what happens to a line whose code field is blank.
type EmptyCodePolicy string

const (
	// EmptyCodeMark emits the record with Valid set to false.
	EmptyCodeMark EmptyCodePolicy = "mark"
	// EmptyCodeDrop omits the record silently.
	EmptyCodeDrop EmptyCodePolicy = "drop"
	// EmptyCodeReject treats the line as malformed.
	EmptyCodeReject EmptyCodePolicy = "reject"
)

// ValidateEmptyCodePolicy parses a policy name.
func ValidateEmptyCodePolicy(s string) (EmptyCodePolicy, error) {
	switch EmptyCodePolicy(s) {
	case EmptyCodeMark, EmptyCodeDrop, EmptyCodeReject:
		return EmptyCodePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown empty-code policy: %q (valid options: mark, drop, reject)", s)
	}
}

// MalformedPolicy decides what happens to a line that cannot be decoded.
type MalformedPolicy string

const (
	// MalformedAbort stops parsing at the first malformed line.
	MalformedAbort MalformedPolicy = "abort"
	// MalformedSkip leaves the line out and reports it in Result.Skipped.
	MalformedSkip MalformedPolicy = "skip"
)

// ValidateMalformedPolicy parses a policy name.
func ValidateMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(s) {
	case MalformedAbort, MalformedSkip:
		return MalformedPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown malformed policy: %q (valid options: abort, skip)", s)
	}
}

// Result is the outcome of a Parse call.
type Result struct {
	Records []CodeRecord
	Skipped []*MalformedRecordError
}

// Parser decodes fixed-width lines according to a Layout.
type Parser struct {
	layout    Layout
	emptyCode EmptyCodePolicy
	malformed MalformedPolicy
}

// Option configures a Parser.
type Option func(*Parser)

// WithEmptyCodePolicy sets the empty-code policy (default mark).
func WithEmptyCodePolicy(p EmptyCodePolicy) Option {
	return func(ps *Parser) { ps.emptyCode = p }
}

// WithMalformedPolicy sets the malformed-line policy (default abort).
func WithMalformedPolicy(p MalformedPolicy) Option {
	return func(ps *Parser) { ps.malformed = p }
}

// NewParser creates a Parser for the given layout.
func NewParser(layout Layout, opts ...Option) (*Parser, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout %q: %w", layout.Name, err)
	}
	p := &Parser{
		layout:    layout,
		emptyCode: EmptyCodeMark,
		malformed: MalformedAbort,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse reads every line of r. Blank lines are ignored.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	res := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	lastOrder := 0
	haveOrder := false

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, merr := p.decode(line, lineNum)
		if merr == nil && rec.Valid && haveOrder && rec.Order <= lastOrder {
			merr = &MalformedRecordError{
				Line:   lineNum,
				Reason: fmt.Sprintf("order %d does not follow %d", rec.Order, lastOrder),
				Text:   line,
			}
		}
		if merr != nil {
			if p.malformed == MalformedAbort {
				return nil, merr
			}
			res.Skipped = append(res.Skipped, merr)
			continue
		}

		if !rec.Valid && p.emptyCode == EmptyCodeDrop {
			continue
		}
		if rec.Valid {
			lastOrder = rec.Order
			haveOrder = true
		}
		res.Records = append(res.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return res, nil
}

// decode turns one line into a record.
func (p *Parser) decode(line string, lineNum int) (CodeRecord, *MalformedRecordError) {
	malformed := func(reason string, err error) *MalformedRecordError {
		return &MalformedRecordError{Line: lineNum, Reason: reason, Text: line, Err: err}
	}

	if need := p.layout.MinLength(); len(line) < need {
		return CodeRecord{}, malformed(fmt.Sprintf("line is %d bytes, layout %q needs at least %d", len(line), p.layout.Name, need), nil)
	}

	rec := CodeRecord{Line: lineNum, Order: lineNum}

	if p.layout.Order != nil {
		raw, _ := p.layout.Order.extract(line)
		order, err := strconv.Atoi(raw)
		if err != nil {
			return CodeRecord{}, malformed(fmt.Sprintf("order %q is not an integer", raw), err)
		}
		rec.Order = order
	}

	rec.Code, _ = p.layout.Code.extract(line)
	rec.Description, _ = p.layout.Description.extract(line)
	if p.layout.ShortDescription != nil {
		rec.ShortDescription, _ = p.layout.ShortDescription.extract(line)
	}

	if p.layout.Header != nil {
		flag, _ := p.layout.Header.extract(line)
		switch flag {
		case "0":
			rec.Header = true
		case "1", "":
		default:
			return CodeRecord{}, malformed(fmt.Sprintf("header flag %q is not 0 or 1", flag), nil)
		}
		rec.HasHeader = true
	}

	switch {
	case rec.Code == "":
		if p.emptyCode == EmptyCodeReject {
			return CodeRecord{}, malformed("code is empty", ErrEmptyCode)
		}
		return rec, nil
	case len(rec.Code) < RootLength:
		return CodeRecord{}, malformed(fmt.Sprintf("code %q is shorter than %d characters", rec.Code, RootLength), nil)
	}

	rec.Valid = true
	return rec, nil
}
