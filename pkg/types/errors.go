package types

import "errors"

var (
	// Protocol errors
	ErrInconsistentRelease = errors.New("state error: inconsistent local RELEASE")
	ErrUnknownKind         = errors.New("unknown message kind")
	ErrMalformedMessage    = errors.New("malformed message")
	ErrPassive             = errors.New("passive process never requests the critical section")
	ErrAlreadyRequesting   = errors.New("process is already requesting the critical section")

	// Group errors
	ErrUnknownGroup = errors.New("unknown group")
	ErrNotMember    = errors.New("not a member of the group")
	ErrNotBound     = errors.New("member is not bound")
	ErrGroupClosed  = errors.New("group channel closed")
)
