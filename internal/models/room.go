package models

// RoomType tags rooms by the kind of lesson they can host.
type RoomType string

const (
	RoomTypeRegular     RoomType = "regular"
	RoomTypeLab         RoomType = "lab"
	RoomTypeComputerLab RoomType = "computer-lab"
	RoomTypeArt         RoomType = "art"
	RoomTypeMusic       RoomType = "music"
	RoomTypePlayground  RoomType = "playground"
)

// Valid reports whether the room type is one of the known tags.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeRegular, RoomTypeLab, RoomTypeComputerLab, RoomTypeArt, RoomTypeMusic, RoomTypePlayground:
		return true
	}
	return false
}

// Room is a physical teaching space.
type Room struct {
	ID   string   `db:"id" json:"id"`
	Name string   `db:"name" json:"name"`
	Type RoomType `db:"room_type" json:"type"`
}
