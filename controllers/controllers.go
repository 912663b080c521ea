package controllers

import (
	"github.com/crisvard/kitoai-booking/booking"
)

// Engine is the shared booking engine handlers delegate to. main wires
// it after the database and lock backend are ready.
var Engine *booking.Engine

func Init(e *booking.Engine) {
	Engine = e
}
