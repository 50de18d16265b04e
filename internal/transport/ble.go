package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"tinygo.org/x/bluetooth"
)

// inboxSize bounds the notification queue between the BlueZ callback
// goroutine and the session. A full burst from the station is well
// under this.
const inboxSize = 64

// BLE is the production Transport, backed by tinygo.org/x/bluetooth
// (BlueZ over D-Bus on Linux).
//
// BlueZ does not expose raw attribute handles, but the station's GATT
// table is fixed: its notifiable characteristics appear in discovery
// order exactly matching the channel table's handle order. Connect
// therefore pairs the n-th discovered characteristic with the n-th
// channel, and tags inbound notifications with that channel's value
// handle.
type BLE struct {
	adapter  *bluetooth.Adapter
	channels []Channel

	enableOnce sync.Once
	enableErr  error
}

// NewBLE returns a Transport on the given adapter ("hci0" style id,
// empty for the default adapter), delivering notifications for the
// given ordered channel table.
func NewBLE(adapterID string, channels []Channel) *BLE {
	adapter := bluetooth.DefaultAdapter
	if adapterID != "" {
		adapter = bluetooth.NewAdapter(adapterID)
	}
	return &BLE{adapter: adapter, channels: channels}
}

// Connect connects to the station at addr (MAC, random address type)
// and resolves its notifiable characteristics against the channel
// table.
func (b *BLE) Connect(ctx context.Context, addr string) (Conn, error) {
	b.enableOnce.Do(func() {
		b.enableErr = b.adapter.Enable()
	})
	if b.enableErr != nil {
		return nil, fmt.Errorf("enable adapter: %w", b.enableErr)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mac, err := bluetooth.ParseMAC(addr)
	if err != nil {
		return nil, fmt.Errorf("parse station address %q: %w", addr, err)
	}
	address := bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}
	address.SetRandom(true)

	device, err := b.adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	conn := &bleConn{
		device: device,
		byCCCD: make(map[uint16]boundChannel, len(b.channels)),
		inbox:  make(chan Notification, inboxSize),
	}

	if err := conn.resolveChannels(b.channels); err != nil {
		if derr := device.Disconnect(); derr != nil {
			log.Warn().Err(derr).Str("addr", addr).Msg("disconnect after failed channel resolution")
		}
		return nil, err
	}

	log.Debug().Str("addr", addr).Int("channels", len(b.channels)).Msg("connected to station")
	return conn, nil
}

// boundChannel ties a channel table entry to the characteristic it
// resolved to on this connection.
type boundChannel struct {
	value uint16
	char  bluetooth.DeviceCharacteristic
}

type bleConn struct {
	device bluetooth.Device
	byCCCD map[uint16]boundChannel
	inbox  chan Notification

	mu     sync.Mutex
	closed bool
}

// resolveChannels discovers the station's services and pairs its
// notifiable characteristics, in discovery order, with the channel
// table. The standard GAP/GATT services carry none of the weather
// data and are skipped.
func (c *bleConn) resolveChannels(channels []Channel) error {
	services, err := c.device.DiscoverServices(nil)
	if err != nil {
		return fmt.Errorf("discover services: %w", err)
	}

	var chars []bluetooth.DeviceCharacteristic
	for _, svc := range services {
		uuid := svc.UUID()
		if uuid == bluetooth.ServiceUUIDGenericAccess || uuid == bluetooth.ServiceUUIDGenericAttribute {
			continue
		}
		svcChars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			return fmt.Errorf("discover characteristics of %s: %w", uuid.String(), err)
		}
		chars = append(chars, svcChars...)
	}

	if len(chars) != len(channels) {
		return fmt.Errorf("station exposes %d characteristics, channel table has %d", len(chars), len(channels))
	}

	for i, ch := range channels {
		c.byCCCD[ch.CCCD] = boundChannel{value: ch.Value, char: chars[i]}
	}
	return nil
}

// Write arms notification delivery when handle is a known CCCD. The
// notify/indicate distinction in value is BlueZ's business; enabling
// subscribes to whichever the characteristic supports.
func (c *bleConn) Write(handle uint16, value []byte) error {
	ch, ok := c.byCCCD[handle]
	if !ok {
		return fmt.Errorf("write to handle 0x%04x: %w", handle, ErrUnknownEndpoint)
	}

	endpoint := ch.value
	err := ch.char.EnableNotifications(func(buf []byte) {
		payload := make([]byte, len(buf))
		copy(payload, buf)
		c.deliver(Notification{Endpoint: endpoint, Payload: payload})
	})
	if err != nil {
		return fmt.Errorf("enable notifications on 0x%04x: %w", handle, err)
	}
	return nil
}

func (c *bleConn) deliver(n Notification) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	select {
	case c.inbox <- n:
	default:
		log.Warn().Uint16("endpoint", n.Endpoint).Msg("notification queue full, dropping")
	}
}

func (c *bleConn) WaitNotification(timeout time.Duration) (Notification, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case n := <-c.inbox:
		return n, true
	case <-timer.C:
		return Notification{}, false
	}
}

func (c *bleConn) Disconnect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyDisconnected
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.device.Disconnect(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
