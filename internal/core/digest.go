package core

import "fmt"

// DigestLine renders one verdict as a single summary line for a digest
// notification: label, rounded score and the first reason.
func DigestLine(v *Verdict) string {
	if len(v.Reasons) == 0 {
		return fmt.Sprintf("[%s] score %d", v.Label, v.Score)
	}
	return fmt.Sprintf("[%s] score %d: %s", v.Label, v.Score, v.Reasons[0])
}
