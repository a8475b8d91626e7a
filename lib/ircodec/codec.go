// Package ircodec is the best-effort legacy decoder for IR, CPR and revision
// identifiers. The identifier grammar was never formally specified by the IR API,
// so every function here degrades gracefully on malformed input instead of failing.
//
//	BADYA-CON-{PROJECT}-IR-{DEPT}-{NNN}
//	BADYA-CON-{PROJECT}-CPR-{DEPT}-{NNN}
//	REV-{PROJECT}-{IRREV|CPRREV}-{NNN}
package ircodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Prefix marks a full IR/CPR identifier
	Prefix = "BADYA-CON"
	// RevisionPrefix marks a revision identifier
	RevisionPrefix = "REV-"
)

// Kinds of identifier
const (
	KindIR     = "IR"
	KindCPR    = "CPR"
	KindIRRev  = "IRREV"
	KindCPRRev = "CPRREV"
)

// ErrInvalidSerial is returned when a custom number does not end in a positive serial
var ErrInvalidSerial = errors.New("number must end with a valid serial (e.g. 001)")

// ErrForeignNumber is returned when a custom number names another project,
// department or request type than the record it is applied to
var ErrForeignNumber = fmt.Errorf("number belongs to another project or department: %w", ErrInvalidSerial)

// ID is a decoded identifier
type ID struct {
	Project string
	Kind    string
	Dept    string // empty for revisions
	Serial  int
}

// FormatShort renders the short display form of an identifier.
// Non-conforming input is returned unchanged.
func FormatShort(full string) string {
	if strings.Contains(full, Prefix) {
		parts := strings.Split(full, "-")
		if len(parts) >= 6 {
			project, kind, dept, seq := parts[2], parts[3], parts[4], parts[5]
			if kind == KindCPR {
				return fmt.Sprintf("CPR-%s-%s-%s", project, dept, seq)
			}
			return fmt.Sprintf("%s-%s-%s", project, dept, seq)
		}
	}

	if strings.Contains(full, RevisionPrefix) {
		parts := strings.Split(full, "-")
		if len(parts) >= 3 {
			return fmt.Sprintf("REV-%s-%s", parts[1], parts[2])
		}
	}

	return full
}

// DeptAbbr maps a department name to its display abbreviation by keyword.
// Unknown departments fall back to their first four upper-case characters.
func DeptAbbr(department string) string {
	dept := strings.ToUpper(department)
	switch {
	case dept == "":
		return ""
	case strings.Contains(dept, "ARCH"):
		return "ARCH"
	case strings.Contains(dept, "CIVIL"), strings.Contains(dept, "STRUCT"):
		return "ST"
	case strings.Contains(dept, "ELECT"):
		return "ELECT"
	case strings.Contains(dept, "MEP"), strings.Contains(dept, "MECH"):
		return "MEP"
	case strings.Contains(dept, "SURV"):
		return "SURV"
	case strings.Contains(dept, "REV"):
		return "REV"
	}

	runes := []rune(dept)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return string(runes)
}

// CounterDept maps a department name to the code the IR API embeds in identifiers
// and uses as counter key. Unknown departments default to ST.
func CounterDept(department string) string {
	dept := strings.ToUpper(strings.TrimSpace(department))
	switch {
	case strings.Contains(dept, "ARCH"):
		return "ARCH"
	case strings.Contains(dept, "CIVIL"), strings.Contains(dept, "STRUCT"):
		return "ST"
	case strings.Contains(dept, "ELECT"):
		return "ELECT"
	case strings.Contains(dept, "MEP"), strings.Contains(dept, "MECH"):
		return "MECH"
	case strings.Contains(dept, "SURV"):
		return "SURV"
	default:
		return "ST"
	}
}

// IsCivil reports whether a department may raise CPRs
func IsCivil(department string) bool {
	return DeptAbbr(department) == "ST"
}

// CleanProject normalizes a project name for use inside an identifier
func CleanProject(project string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(project), " ", "-"))
}

// Format renders a full IR/CPR identifier with a 3-digit zero-padded serial
func Format(project, dept, requestType string, serial int) string {
	kind := KindIR
	if strings.EqualFold(requestType, KindCPR) {
		kind = KindCPR
	}
	return fmt.Sprintf("%s-%s-%s-%s-%03d", Prefix, CleanProject(project), kind, dept, serial)
}

// Parse decodes a full IR/CPR or revision identifier. Project names containing
// dashes are not recoverable and parse as false.
func Parse(full string) (ID, bool) {
	parts := strings.Split(full, "-")

	if strings.HasPrefix(full, Prefix+"-") && len(parts) == 6 {
		kind := parts[3]
		if kind != KindIR && kind != KindCPR {
			return ID{}, false
		}
		serial, err := strconv.Atoi(parts[5])
		if err != nil || serial < 0 {
			return ID{}, false
		}
		return ID{Project: parts[2], Kind: kind, Dept: parts[4], Serial: serial}, true
	}

	if strings.HasPrefix(full, RevisionPrefix) && len(parts) == 4 {
		kind := parts[2]
		if kind != KindIRRev && kind != KindCPRRev {
			return ID{}, false
		}
		serial, err := strconv.Atoi(parts[3])
		if err != nil || serial < 0 {
			return ID{}, false
		}
		return ID{Project: parts[1], Kind: kind, Serial: serial}, true
	}

	return ID{}, false
}

// ParseSerial extracts the serial from a DC's custom-number input, which may be
// a bare number ("7"), a short id ("D6-ST-007") or a full identifier
func ParseSerial(input string) (int, error) {
	value := strings.TrimSpace(input)
	if idx := strings.LastIndex(value, "-"); idx >= 0 {
		value = value[idx+1:]
	}

	serial, err := strconv.Atoi(value)
	if err != nil || serial < 1 {
		return 0, fmt.Errorf("%q: %w", input, ErrInvalidSerial)
	}
	return serial, nil
}

// CheckNumber verifies that the prefix of a custom number matches target, in
// either its full or its short form. Bare serials carry no prefix and pass.
func CheckNumber(input, target string) error {
	value := strings.ToUpper(strings.TrimSpace(input))
	idx := strings.LastIndex(value, "-")
	if idx < 0 {
		return nil
	}

	prefix := value[:idx]
	if prefix == stripSerial(target) || prefix == stripSerial(FormatShort(target)) {
		return nil
	}
	return fmt.Errorf("%q: %w", input, ErrForeignNumber)
}

func stripSerial(id string) string {
	if idx := strings.LastIndex(id, "-"); idx >= 0 {
		return id[:idx]
	}
	return id
}

// RevisionDisplayNumber renders REV-{IR|CPR}-{userRevNumber}, falling back to the
// revision text, then the raw revision number
func RevisionDisplayNumber(revisionType, userRevNumber, revText, revNo string) string {
	prefix := "REV-IR-"
	if revisionType == "CPR_REVISION" {
		prefix = "REV-CPR-"
	}

	switch {
	case userRevNumber != "":
		return prefix + userRevNumber
	case revText != "":
		return prefix + revText
	case revNo != "":
		return revNo
	default:
		return "REV"
	}
}

// DocumentFilename is the file name a generated Word document is saved under
func DocumentFilename(id string) string {
	if strings.Contains(id, Prefix) {
		return id + ".docx"
	}
	return "IR-" + id + ".docx"
}
