package scan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context, address byte) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

// busWith answers only for the given addresses and records every probed address.
func busWith(probed *[]byte, present ...byte) ProberFunc {
	return func(ctx context.Context, address byte) error {
		*probed = append(*probed, address)
		if slices.Contains(present, address) {
			return nil
		}
		return fmt.Errorf("could not read from i2c bus %x: %w", address, ErrAddressNack)
	}
}

func TestBitmap_Size(t *testing.T) {
	assert.Equal(t, 16, BitmapSize)
	assert.Len(t, Bitmap{}, 16)
}

func TestBitmap_SetHas(t *testing.T) {
	var b Bitmap
	b.Set(1)
	b.Set(8)
	b.Set(9)
	b.Set(127)
	b.Set(0)   // ignored
	b.Set(128) // ignored
	assert.True(t, b.Has(1))
	assert.True(t, b.Has(8))
	assert.True(t, b.Has(9))
	assert.True(t, b.Has(127))
	assert.False(t, b.Has(0))
	assert.False(t, b.Has(2))
	assert.False(t, b.Has(128))
	assert.Equal(t, 4, b.Count())
	assert.Equal(t, byte(0x81), b[0])
	assert.Equal(t, byte(0x01), b[1])
	assert.Equal(t, byte(0x40), b[15])
}

func TestBitmap_All(t *testing.T) {
	var b Bitmap
	for _, addr := range []byte{0x77, 0x08, 0x50, 0x09} {
		b.Set(addr)
	}
	assert.Equal(t, []byte{0x08, 0x09, 0x50, 0x77}, slices.Collect(b.All()))

	var empty Bitmap
	assert.Empty(t, slices.Collect(empty.All()))
	assert.True(t, empty.Empty())
}

func TestReading_CursorAscendingRegardlessOfSetOrder(t *testing.T) {
	orders := [][]byte{
		{0x08, 0x50, 0x77},
		{0x77, 0x50, 0x08},
		{0x50, 0x77, 0x08},
	}
	for _, order := range orders {
		t.Run(fmt.Sprintf("%x", order), func(t *testing.T) {
			var r Reading
			for _, addr := range order {
				r.Addresses.Set(addr)
			}
			assert.Equal(t, byte(0), r.Current())
			var got []byte
			for {
				addr, ok := r.Next()
				if !ok {
					break
				}
				got = append(got, addr)
			}
			assert.Equal(t, []byte{0x08, 0x50, 0x77}, got)
		})
	}
}

func TestReading_ExhaustionHoldsCursor(t *testing.T) {
	var r Reading
	r.Addresses.Set(0x20)
	addr, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, byte(0x20), addr)

	for i := 0; i < 3; i++ {
		addr, ok = r.Next()
		assert.False(t, ok)
		assert.Equal(t, byte(0x20), addr)
		assert.Equal(t, byte(0x20), r.Current())
	}

	r.Rewind()
	addr, ok = r.Next()
	assert.True(t, ok)
	assert.Equal(t, byte(0x20), addr)
}

func TestReading_CopiesIterateIndependently(t *testing.T) {
	var r Reading
	r.Addresses.Set(0x10)
	r.Addresses.Set(0x11)
	_, _ = r.Next()
	cp := r
	_, _ = cp.Next()
	assert.Equal(t, byte(0x10), r.Current())
	assert.Equal(t, byte(0x11), cp.Current())
}

func TestScanner_ScanAll_NoDevices(t *testing.T) {
	var probed []byte
	s := NewScanner(busWith(&probed))
	r, err := s.Scan(context.Background(), ModeScanAll)
	require.NoError(t, err)
	assert.Equal(t, ModeAll, r.Mode())
	assert.True(t, r.Addresses.Empty())
	_, ok := r.Next()
	assert.False(t, ok)
	assert.Equal(t, byte(0), r.Current())
}

func TestScanner_ScanAll_ProbesOnlyValidRange(t *testing.T) {
	var probed []byte
	s := NewScanner(busWith(&probed, 0x08, 0x50, 0x77))
	r, err := s.Scan(context.Background(), ModeScanAll)
	require.NoError(t, err)
	require.Len(t, probed, MaxDevices)
	assert.Equal(t, byte(1), probed[0])
	assert.Equal(t, byte(127), probed[len(probed)-1])
	assert.Equal(t, TxSuccess, r.SingleDeviceStatus)
	assert.Equal(t, []byte{0x08, 0x50, 0x77}, slices.Collect(r.Addresses.All()))

	var walked []byte
	for addr, ok := r.Next(); ok; addr, ok = r.Next() {
		walked = append(walked, addr)
	}
	assert.Equal(t, []byte{0x08, 0x50, 0x77}, walked)
}

func TestScanner_ScanAll_BusFaultReportedButScanCompletes(t *testing.T) {
	busErr := errors.New("arbitration lost")
	s := NewScanner(ProberFunc(func(ctx context.Context, address byte) error {
		switch address {
		case 0x10:
			return busErr
		case 0x20:
			return nil
		case 0x30:
			return ErrDataNack
		}
		return ErrAddressNack
	}))
	r, err := s.Scan(context.Background(), ModeScanAll)
	require.Error(t, err)
	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, byte(0x10), probeErr.Address)
	assert.Equal(t, TxUnknown, probeErr.Result)
	assert.ErrorIs(t, err, busErr)
	assert.True(t, r.Addresses.Has(0x20))
	assert.Equal(t, 1, r.Addresses.Count())
}

func TestScanner_ScanAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScanner(ProberFunc(func(ctx context.Context, address byte) error {
		if address == 0x05 {
			cancel()
		}
		return nil
	}))
	r, err := s.Scan(ctx, ModeScanAll)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, r.Addresses.Count())
}

func TestScanner_Probe(t *testing.T) {
	tests := []struct {
		name     string
		probeErr error
		expected TransmissionResult
	}{
		{"present", nil, TxSuccess},
		{"address nack", fmt.Errorf("write to 50 failed: %w", ErrAddressNack), TxNackAddress},
		{"data nack", ErrDataNack, TxNackData},
		{"too long", ErrDataTooLong, TxTooLong},
		{"unexpected", errors.New("bus stuck low"), TxUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := new(MockProber)
			p.On("Probe", mock.Anything, byte(0x50)).Return(tt.probeErr).Once()
			r, err := NewScanner(p).Scan(context.Background(), 0x50)

			assert.Equal(t, ModeProbe, r.Mode())
			assert.Equal(t, byte(0x50), r.DeviceAddress)
			assert.Equal(t, tt.expected, r.SingleDeviceStatus)
			assert.True(t, r.Addresses.Empty())
			if tt.expected == TxSuccess {
				assert.NoError(t, err)
			} else {
				var probeErr *ProbeError
				require.ErrorAs(t, err, &probeErr)
				assert.Equal(t, tt.expected, probeErr.Result)
				assert.Equal(t, tt.expected, Classify(err))
			}
			p.AssertExpectations(t)
		})
	}
}

func TestScanner_ProbeOutOfRange(t *testing.T) {
	p := new(MockProber)
	r, err := NewScanner(p).Scan(context.Background(), 0x80)
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Equal(t, byte(0x80), r.DeviceAddress)
	p.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		expected TransmissionResult
	}{
		{nil, TxSuccess},
		{ErrDataTooLong, TxTooLong},
		{fmt.Errorf("x: %w", ErrAddressNack), TxNackAddress},
		{ErrDataNack, TxNackData},
		{errors.New("sysfs-i2c: ioctl: no such device or address"), TxNackAddress},
		{errors.New("read /dev/i2c-1: remote I/O error"), TxNackAddress},
		{errors.New("timeout"), TxUnknown},
		{&ProbeError{Address: 1, Result: TxNackData}, TxNackData},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.err), func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestFromRaw(t *testing.T) {
	for code := 0; code <= 4; code++ {
		assert.Equal(t, TransmissionResult(code), FromRaw(uint8(code)))
	}
	assert.Equal(t, TxUnknown, FromRaw(5))
	assert.Equal(t, TxUnknown, FromRaw(0xFF))
}
