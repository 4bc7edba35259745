package models

// Subject is a taught subject together with its weekly demand.
type Subject struct {
	ID                  string   `db:"id" json:"id"`
	Name                string   `db:"name" json:"name"`
	PeriodsPerWeek      int      `db:"periods_per_week" json:"periods_per_week"`
	RequiresSpecialRoom bool     `db:"requires_special_room" json:"requires_special_room"`
	RoomType            RoomType `db:"room_type" json:"room_type,omitempty"`
}

// subjectRoomTypes maps special subjects to the room type they must be taught in.
var subjectRoomTypes = map[string]RoomType{
	"Science":            RoomTypeLab,
	"Computer Science":   RoomTypeComputerLab,
	"Art":                RoomTypeArt,
	"Music":              RoomTypeMusic,
	"Physical Education": RoomTypePlayground,
}

// RequiredRoomType resolves which room type the subject needs. An explicit RoomType wins over
// the name mapping; subjects without a special room requirement use regular classrooms.
// The boolean is false when a special room is required but no mapping is known.
func (s Subject) RequiredRoomType() (RoomType, bool) {
	if !s.RequiresSpecialRoom {
		return RoomTypeRegular, true
	}
	if s.RoomType != "" {
		return s.RoomType, true
	}
	roomType, ok := subjectRoomTypes[s.Name]
	return roomType, ok
}
