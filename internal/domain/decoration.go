package domain

import "time"

// FurnitureItem is one placed object on the office floor.
type FurnitureItem struct {
	ID       string  `bson:"id" json:"id"`
	Type     string  `bson:"type" json:"type"`
	X        float64 `bson:"x" json:"x"`
	Y        float64 `bson:"y" json:"y"`
	Width    float64 `bson:"width,omitempty" json:"width,omitempty"`
	Height   float64 `bson:"height,omitempty" json:"height,omitempty"`
	Image    string  `bson:"image,omitempty" json:"image,omitempty"`
	Blocking bool    `bson:"blocking" json:"blocking"`
}

// CustomObject is a user-uploaded object definition referenced by furniture.
type CustomObject struct {
	Name     string  `bson:"name" json:"name"`
	Image    string  `bson:"image" json:"image"`
	Width    float64 `bson:"width,omitempty" json:"width,omitempty"`
	Height   float64 `bson:"height,omitempty" json:"height,omitempty"`
	Blocking bool    `bson:"blocking" json:"blocking"`
}

// Decoration is the per-room decoration document. One per room (upsert by
// room name), replaced wholesale on every save. TileFloors keys are
// "col,row" pairs.
type Decoration struct {
	Room       RoomName                `bson:"room" json:"room"`
	Furniture  []FurnitureItem         `bson:"furniture" json:"furniture"`
	RoomColors map[string]string       `bson:"customRoomColors" json:"customRoomColors"`
	FloorTypes map[string]string       `bson:"customRoomFloorTypes" json:"customRoomFloorTypes"`
	TileFloors map[string]string       `bson:"customTileFloors" json:"customTileFloors"`
	Objects    map[string]CustomObject `bson:"customObjects" json:"customObjects"`
	UpdatedBy  string                  `bson:"lastUpdatedBy" json:"updatedBy,omitempty"`
	UpdatedAt  time.Time               `bson:"updatedAt" json:"updatedAt,omitempty"`
}

// EmptyDecoration is what clients get before anyone has decorated a room.
func EmptyDecoration(room RoomName) *Decoration {
	return &Decoration{
		Room:       room,
		Furniture:  []FurnitureItem{},
		RoomColors: map[string]string{},
		FloorTypes: map[string]string{},
		TileFloors: map[string]string{},
		Objects:    map[string]CustomObject{},
	}
}
