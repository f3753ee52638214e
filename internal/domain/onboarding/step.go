package onboarding

import (
	"strconv"
	"strings"
)

// Step is the 1-indexed wizard page.
type Step int

const (
	StepSignup Step = iota + 1
	StepPersonalInfo
	StepProfile
)

const TotalSteps = int(StepProfile)

var stepNames = map[Step]string{
	StepSignup:       "signup",
	StepPersonalInfo: "personal-info",
	StepProfile:      "profile",
}

func (s Step) Valid() bool {
	return s >= StepSignup && int(s) <= TotalSteps
}

func (s Step) Name() string {
	return stepNames[s]
}

func (s Step) IsFirst() bool { return s == StepSignup }
func (s Step) IsLast() bool  { return int(s) == TotalSteps }

// ParseStep resolves a URL segment. Missing, non-numeric or out-of-range input is step 1.
func ParseStep(segment string) Step {
	n, err := strconv.Atoi(strings.TrimSpace(segment))
	if err != nil {
		return StepSignup
	}
	return Clamp(n)
}

// Clamp maps any integer onto a valid step, defaulting to the first one.
func Clamp(n int) Step {
	s := Step(n)
	if !s.Valid() {
		return StepSignup
	}
	return s
}

func (s Step) String() string {
	return strconv.Itoa(int(s))
}
