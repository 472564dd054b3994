package sfs

import "strconv"

// ErrorCode is a wire-visible login/room error code. The numeric values are
// defined by the client and must match exactly.
type ErrorCode int16

const (
	ErrInvalidAPI                        ErrorCode = 0
	ErrInvalidZone                       ErrorCode = 1
	ErrInvalidUsername                   ErrorCode = 2
	ErrInvalidPassword                   ErrorCode = 3
	ErrUserBanned                        ErrorCode = 4
	ErrZoneFull                          ErrorCode = 5
	ErrAlreadyLoggedIntoZone             ErrorCode = 6
	ErrServerFull                        ErrorCode = 7
	ErrZoneInactive                      ErrorCode = 8
	ErrUsernameInappropriate             ErrorCode = 9
	ErrGuestDeniedInZone                 ErrorCode = 10
	ErrIPBanned                          ErrorCode = 11
	ErrRoomExists                        ErrorCode = 12
	ErrGroupUnavailable                  ErrorCode = 13
	ErrBadRoomNameLength                 ErrorCode = 14
	ErrRoomNameInappropriate             ErrorCode = 15
	ErrTooManyRoomsInZone                ErrorCode = 16
	ErrExceededRoomSessionLimit          ErrorCode = 17
	ErrRoomCreationFailed                ErrorCode = 18
	ErrRoomAlreadyJoined                 ErrorCode = 19
	ErrRoomFull                          ErrorCode = 20
	ErrInvalidRoomPassword               ErrorCode = 21
	ErrRoomNotFound                      ErrorCode = 22
	ErrRoomLocked                        ErrorCode = 23
	ErrGroupAlreadySubscribed            ErrorCode = 24
	ErrGroupNotFound                     ErrorCode = 25
	ErrGroupNotSubscribed                ErrorCode = 26
	ErrGeneric                           ErrorCode = 28
	ErrRoomRenameDenied                  ErrorCode = 29
	ErrRoomPasswordChangeDenied          ErrorCode = 30
	ErrRoomCapacityChangeDenied          ErrorCode = 31
	ErrSwitchFailedNoPlayerSlots         ErrorCode = 32
	ErrSwitchFailedNoSpectatorSlots      ErrorCode = 33
	ErrSwitchFailedNonGameRoom           ErrorCode = 34
	ErrSwitchFailedNotJoinedInRoom       ErrorCode = 35
	ErrBuddyListError                    ErrorCode = 36
	ErrBuddyListFull                     ErrorCode = 37
	ErrTooManyBuddyVariables             ErrorCode = 39
	ErrGameAccessDenied                  ErrorCode = 40
	ErrQuickJoinFailedNoMatchingRooms    ErrorCode = 41
	ErrInviteReplyInvalid                ErrorCode = 42
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidAPI:
		return "INVALID_API"
	case ErrInvalidZone:
		return "INVALID_ZONE"
	case ErrInvalidUsername:
		return "INVALID_USERNAME"
	case ErrInvalidPassword:
		return "INVALID_PASSWORD"
	case ErrUserBanned:
		return "USER_BANNED"
	case ErrZoneFull:
		return "ZONE_FULL"
	case ErrAlreadyLoggedIntoZone:
		return "ALREADY_LOGGED_INTO_ZONE"
	case ErrServerFull:
		return "SERVER_FULL"
	case ErrZoneInactive:
		return "ZONE_INACTIVE"
	case ErrGuestDeniedInZone:
		return "GUEST_DENIED_IN_ZONE"
	case ErrRoomExists:
		return "ROOM_EXISTS"
	case ErrRoomNotFound:
		return "ROOM_NOT_FOUND"
	case ErrGeneric:
		return "GENERIC"
	default:
		return "ERROR_" + strconv.Itoa(int(c))
	}
}

