package depsync

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkgraph/vkrange"
)

func testFamilies() QueueFamilies {
	return QueueFamilies{Graphics: 0, Compute: 1, Transfer: 2}
}

func testRef() vkrange.Ref { return vkrange.Ref{AttachmentIndex: 0} }

func testRange() vkrange.Range {
	return vkrange.Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipCount: vkrange.Remaining, LayerCount: vkrange.Remaining}
}

func TestClaimReusesUnusedNonSemaphore(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	p.objects = append(p.objects, &Object{stage: Unused})

	obj, err := p.Claim(vk.Device(0), 1, false, 0)
	require.NoError(t, err)
	assert.Len(t, p.objects, 1)
	assert.Same(t, p.objects[0], obj)
}

func TestClaimSharesSemaphoreWithinSameInjection(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	shared := &Object{stage: Prepare, injection: 7, dstFamily: 0, flags: HasSemaphore, semaphore: vk.Semaphore(42)}
	p.objects = append(p.objects, shared)

	obj, err := p.Claim(vk.Device(0), 7, true, 0)
	require.NoError(t, err)
	assert.Same(t, shared, obj)
	assert.Len(t, p.objects, 1, "sharing must not allocate a new entry")
}

func TestClaimReusesUnusedSemaphoreObjectWithoutAllocating(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	reusable := &Object{stage: Unused, flags: HasSemaphore, semaphore: vk.Semaphore(11)}
	p.objects = append(p.objects, reusable)

	obj, err := p.Claim(vk.Device(0), 9, true, 0)
	require.NoError(t, err)
	assert.Same(t, reusable, obj)
	assert.Len(t, p.objects, 1)
}

func TestPrepareSameFamilyWriteNeedsBarrierAndHazard(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	p.objects = append(p.objects, &Object{stage: Unused, flags: HasSemaphore, semaphore: vk.Semaphore(1)})

	obj, release, err := p.Prepare(vk.Device(0), 1, PrepareInput{
		Access:    vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		Stage:     vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Layout:    vk.ImageLayoutColorAttachmentOptimal,
		SrcFamily: 0,
		DstFamily: 0,
	})
	require.NoError(t, err)
	assert.Nil(t, release, "same-family signal never emits a release half")
	assert.Equal(t, Prepare, obj.Stage())
	assert.True(t, obj.Flags()&HasBarrier != 0)
	assert.True(t, obj.Flags()&HasMemoryHazard != 0)
}

func TestPrepareCrossFamilyTransferEmitsReleaseWithZeroedDst(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	p.objects = append(p.objects, &Object{stage: Unused, flags: HasSemaphore, semaphore: vk.Semaphore(2)})

	_, release, err := p.Prepare(vk.Device(0), 1, PrepareInput{
		Access:    vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		Stage:     vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Layout:    vk.ImageLayoutColorAttachmentOptimal,
		SrcFamily: testFamilies().Graphics,
		DstFamily: testFamilies().Compute,
	})
	require.NoError(t, err)
	require.NotNil(t, release, "cross-family non-discard non-concurrent transfer must release at prepare")
	assert.Equal(t, vk.AccessFlags(0), release.DstAccess)
	assert.Equal(t, vk.PipelineStageFlags(0), release.DstStage)
}

func TestPrepareDiscardSkipsReleaseHalf(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	p.objects = append(p.objects, &Object{stage: Unused, flags: HasSemaphore, semaphore: vk.Semaphore(3)})

	_, release, err := p.Prepare(vk.Device(0), 1, PrepareInput{
		Access:    vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		Stage:     vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Layout:    vk.ImageLayoutColorAttachmentOptimal,
		SrcFamily: testFamilies().Graphics,
		DstFamily: testFamilies().Compute,
		Discard:   true,
	})
	require.NoError(t, err)
	assert.Nil(t, release, "a discard signal never emits a release half")
}

func TestPrepareConcurrentSkipsOwnershipTransfer(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	p.objects = append(p.objects, &Object{stage: Unused, flags: HasSemaphore, semaphore: vk.Semaphore(4)})

	_, release, err := p.Prepare(vk.Device(0), 1, PrepareInput{
		Access:     vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		Stage:      vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
		SrcFamily:  testFamilies().Graphics,
		DstFamily:  testFamilies().Compute,
		Concurrent: true,
	})
	require.NoError(t, err)
	assert.Nil(t, release)
}

func TestCatchMatchesPendingAndMovesToCatch(t *testing.T) {
	p := New(testFamilies(), 2, nil)
	ref := testRef()
	rng := testRange()
	obj := &Object{
		stage: Pending, flags: HasSemaphore | HasBarrier, semaphore: vk.Semaphore(5),
		ref: ref, rng: rng, dstFamily: testFamilies().Compute, waitCredit: 2,
	}
	p.objects = append(p.objects, obj)

	res := p.Catch(1, CatchInput{Ref: ref, Range: rng, DstFamily: testFamilies().Compute, Layout: vk.ImageLayoutGeneral})
	assert.True(t, res.Matched)
	assert.Equal(t, vk.Semaphore(5), res.Semaphore)
	require.Len(t, res.Barriers, 1)
	assert.Equal(t, Catch, obj.Stage())
	assert.Equal(t, 1, obj.waitCredit)
}

func TestCatchSameInjectionPrepareShortCircuitsToPrepareCatch(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	ref := testRef()
	rng := testRange()
	obj := &Object{stage: Prepare, injection: 3, ref: ref, rng: rng, dstFamily: testFamilies().Compute}
	p.objects = append(p.objects, obj)

	res := p.Catch(3, CatchInput{Ref: ref, Range: rng, DstFamily: testFamilies().Compute})
	assert.True(t, res.Matched)
	assert.Equal(t, PrepareCatch, obj.Stage())
}

func TestCatchNoMatchReturnsUnmatched(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	res := p.Catch(1, CatchInput{Ref: testRef(), Range: testRange(), DstFamily: testFamilies().Compute})
	assert.False(t, res.Matched)
	assert.Equal(t, vk.NullSemaphore, res.Semaphore)
}

func TestFinishSuccessTransitionsPrepareToPending(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	obj := &Object{stage: Prepare, injection: 1}
	p.objects = append(p.objects, obj)
	p.Finish(1, true)
	assert.Equal(t, Pending, obj.Stage())
}

func TestFinishAbortRevertsCatchToPending(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	obj := &Object{stage: Catch, injection: 1}
	p.objects = append(p.objects, obj)
	p.Finish(1, false)
	assert.Equal(t, Pending, obj.Stage())
}

func TestFinishAbortReleasesPrepareObjects(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	obj := &Object{stage: Prepare, injection: 1, srcAccess: vk.AccessFlags(vk.AccessShaderWriteBit)}
	p.objects = append(p.objects, obj)
	p.Finish(1, false)
	assert.Equal(t, Unused, obj.Stage())
	assert.Equal(t, vk.AccessFlags(0), obj.srcAccess)
}

func TestWaitCreditExhaustionReturnsObjectToUnused(t *testing.T) {
	p := New(testFamilies(), 1, nil)
	ref := testRef()
	rng := testRange()
	obj := &Object{
		stage: Pending, flags: HasSemaphore, semaphore: vk.Semaphore(6),
		ref: ref, rng: rng, dstFamily: testFamilies().Compute, waitCredit: 1,
	}
	p.objects = append(p.objects, obj)

	res := p.Catch(1, CatchInput{Ref: ref, Range: rng, DstFamily: testFamilies().Compute})
	require.True(t, res.Matched)
	assert.Equal(t, 0, obj.waitCredit)

	p.Finish(1, true)
	assert.Equal(t, Unused, obj.Stage(), "credit reached zero, object must retire to unused")
}

func TestWaitCreditNotExhaustedStaysUsed(t *testing.T) {
	p := New(testFamilies(), 3, nil)
	ref := testRef()
	rng := testRange()
	obj := &Object{
		stage: Pending, flags: HasSemaphore, semaphore: vk.Semaphore(7),
		ref: ref, rng: rng, dstFamily: testFamilies().Compute, waitCredit: 3,
	}
	p.objects = append(p.objects, obj)

	p.Catch(1, CatchInput{Ref: ref, Range: rng, DstFamily: testFamilies().Compute})
	p.Finish(1, true)
	assert.Equal(t, Used, obj.Stage())
	assert.Equal(t, 2, obj.waitCredit)
}
