package recorder

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
)

type fakeRecorder struct {
	resets  int
	orders  []int
}

func (f *fakeRecorder) Reset() { f.resets++ }
func (f *fakeRecorder) Record(order int, _ vk.CommandBuffer) {
	f.orders = append(f.orders, order)
}

func TestSetFansOutResetAndRecordToEveryMember(t *testing.T) {
	a := &fakeRecorder{}
	b := &fakeRecorder{}
	s := NewSet(a, b)

	s.Reset()
	s.Record(2, vk.CommandBuffer(vk.NullHandle))

	assert.Equal(t, 1, a.resets)
	assert.Equal(t, 1, b.resets)
	assert.Equal(t, []int{2}, a.orders)
	assert.Equal(t, []int{2}, b.orders)
}

func TestSetAddAppendsRecorder(t *testing.T) {
	s := NewSet()
	r := &fakeRecorder{}
	s.Add(r)
	s.Record(0, vk.CommandBuffer(vk.NullHandle))
	assert.Equal(t, []int{0}, r.orders)
}
