package enrichment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"syscall"
	"time"

	"github.com/emresahna/logd/internal/model"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/cache"
	"k8s.io/client-go/tools/clientcmd"
)

const (
	writerCacheLifetime = 2 * time.Minute
	writerCacheSize     = 4096
)

// Enricher attaches host context to an entry using the writer identity the
// kernel reported with the datagram.
type Enricher interface {
	Enrich(ctx context.Context, uid, pid uint32, entry *model.LogEntry)
}

type NoopEnricher struct {
	node string
}

func NewNoop(node string) NoopEnricher {
	return NoopEnricher{node: node}
}

func (e NoopEnricher) Enrich(_ context.Context, _, _ uint32, entry *model.LogEntry) {
	entry.Node = e.node
}

// K8sEnricher maps writers to containers through /proc/<pid>/cgroup and
// containers to pods through a node-scoped pod informer.
type K8sEnricher struct {
	node     string
	procRoot string
	index    *podIndex
	writers  *writerCache
}

// New returns a Kubernetes-backed enricher when enabled and a cluster
// config is available, and a NoopEnricher otherwise.
func New(ctx context.Context, enabled bool, nodeName string) (Enricher, error) {
	if !enabled {
		return NewNoop(nodeName), nil
	}

	config, err := rest.InClusterConfig()
	if err != nil {
		if kubeconfig := os.Getenv("KUBECONFIG"); kubeconfig != "" {
			config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		}
	}
	if err != nil {
		return NewNoop(nodeName), nil
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("kubernetes client: %w", err)
	}

	e := newK8sEnricher(nodeName)

	factory := informers.NewSharedInformerFactoryWithOptions(
		clientset,
		0,
		informers.WithTweakListOptions(func(options *metav1.ListOptions) {
			if nodeName != "" {
				options.FieldSelector = "spec.nodeName=" + nodeName
			}
		}),
	)

	informer := factory.Core().V1().Pods().Informer()
	if _, err := informer.AddEventHandler(e.index.handler()); err != nil {
		return nil, fmt.Errorf("pod informer: %w", err)
	}

	factory.Start(ctx.Done())
	if !cache.WaitForCacheSync(ctx.Done(), informer.HasSynced) {
		return nil, fmt.Errorf("pod informer: cache sync aborted")
	}

	return e, nil
}

func newK8sEnricher(nodeName string) *K8sEnricher {
	return &K8sEnricher{
		node:     nodeName,
		procRoot: "/proc",
		index:    newPodIndex(),
		writers:  newWriterCache(writerCacheLifetime, writerCacheSize),
	}
}

func (e *K8sEnricher) Enrich(_ context.Context, uid, pid uint32, entry *model.LogEntry) {
	entry.Node = e.node

	key := writerKey{uid: uid, pid: pid}
	containerID, ok := e.writers.Get(key)
	if !ok {
		// Host processes are cached too, as "".
		containerID = writerContainer(e.procRoot, uid, pid)
		e.writers.Set(key, containerID)
	}
	if containerID == "" {
		return
	}

	entry.ContainerID = containerID
	if meta, ok := e.index.Get(containerID); ok {
		entry.Namespace = meta.Namespace
		entry.Pod = meta.Pod
		entry.Container = meta.Container
	}
}

var containerIDRegex = regexp.MustCompile(`[0-9a-f]{64}`)

// writerContainer resolves the container of pid. The /proc entry must be
// owned by uid; a pid recycled by another user's process yields "".
func writerContainer(procRoot string, uid, pid uint32) string {
	dir := filepath.Join(procRoot, strconv.FormatUint(uint64(pid), 10))
	info, err := os.Stat(dir)
	if err != nil {
		return ""
	}
	if st, ok := info.Sys().(*syscall.Stat_t); !ok || st.Uid != uid {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(dir, "cgroup"))
	if err != nil {
		return ""
	}
	match := containerIDRegex.Find(data)
	if match == nil {
		return ""
	}
	return string(match)
}
