package heart

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
)

// Power is the output that keeps the supply latched on. An external circuit
// cuts the supply after a fixed time no matter what this line does.
type Power struct {
	Pin gpio.PinOut
}

// Hold drives the power line high. It is called once at startup and the line
// is never touched again.
func (p *Power) Hold() error {
	if p.Pin == nil {
		return nil
	}
	if err := p.Pin.Out(gpio.High); err != nil {
		return errors.Wrap(err, "hold power")
	}
	return nil
}
