package enrichment

import (
	"strings"
	"sync"

	v1 "k8s.io/api/core/v1"
	"k8s.io/client-go/tools/cache"
)

type PodMeta struct {
	Namespace   string
	Pod         string
	Container   string
	ContainerID string
}

type podIndex struct {
	mu      sync.RWMutex
	entries map[string]PodMeta
}

func newPodIndex() *podIndex {
	return &podIndex{
		entries: make(map[string]PodMeta),
	}
}

func (p *podIndex) handler() cache.ResourceEventHandlerFuncs {
	return cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj any) {
			if pod, ok := obj.(*v1.Pod); ok {
				p.UpsertPod(pod)
			}
		},
		UpdateFunc: func(_, newObj any) {
			if pod, ok := newObj.(*v1.Pod); ok {
				p.UpsertPod(pod)
			}
		},
		DeleteFunc: func(obj any) {
			pod, ok := obj.(*v1.Pod)
			if !ok {
				tombstone, ok := obj.(cache.DeletedFinalStateUnknown)
				if !ok {
					return
				}
				pod, _ = tombstone.Obj.(*v1.Pod)
				if pod == nil {
					return
				}
			}
			p.DeletePod(pod)
		},
	}
}

func (p *podIndex) UpsertPod(pod *v1.Pod) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, meta := range extractPodMeta(pod) {
		p.entries[meta.ContainerID] = meta
	}
}

func (p *podIndex) DeletePod(pod *v1.Pod) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, meta := range extractPodMeta(pod) {
		delete(p.entries, meta.ContainerID)
	}
}

func (p *podIndex) Get(containerID string) (PodMeta, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	meta, ok := p.entries[containerID]
	return meta, ok
}

func extractPodMeta(pod *v1.Pod) []PodMeta {
	var metas []PodMeta
	appendMeta := func(status v1.ContainerStatus) {
		containerID := normalizeContainerID(status.ContainerID)
		if containerID == "" {
			return
		}
		metas = append(metas, PodMeta{
			Namespace:   pod.Namespace,
			Pod:         pod.Name,
			Container:   status.Name,
			ContainerID: containerID,
		})
	}

	for _, status := range pod.Status.InitContainerStatuses {
		appendMeta(status)
	}
	for _, status := range pod.Status.ContainerStatuses {
		appendMeta(status)
	}
	for _, status := range pod.Status.EphemeralContainerStatuses {
		appendMeta(status)
	}
	return metas
}

// normalizeContainerID strips the runtime scheme, e.g. "containerd://".
func normalizeContainerID(raw string) string {
	if _, id, ok := strings.Cut(raw, "://"); ok {
		return id
	}
	return raw
}
