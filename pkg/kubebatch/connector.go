// Package kubebatch adapts Kubernetes batch/v1 Jobs to the canonical
// connector contract. The handle carries the Job name plus its namespace.
package kubebatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
)

// Name is the registry name for this connector.
const Name = "kubebatch"

const (
	containerName = "job"
	jobTypeLabel  = "flytekit.redartera.io/type"
	jobNameLabel  = "flytekit.redartera.io/job"

	// Finished Jobs are garbage-collected by the cluster after this TTL;
	// polling callers are expected to observe the terminal phase well
	// within it.
	ttlAfterFinished = int32(3600)
)

// Raw status tokens derived from JobStatus before normalization.
const (
	statusPending   = "pending"
	statusActive    = "active"
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusSuspended = "suspended"
)

// Connector submits one Job per Create and never retries; BackoffLimit is
// zero so the cluster does not resubmit on failure either.
type Connector struct {
	client    kubernetes.Interface
	namespace string
	table     connector.StatusTable
	log       *flog.Logger
}

// NewConnector wires a Job-backed connector scoped to namespace.
func NewConnector(client kubernetes.Interface, namespace string, log *flog.Logger) *Connector {
	if log == nil {
		log = flog.NewDefault()
	}
	if namespace == "" {
		namespace = corev1.NamespaceDefault
	}
	return &Connector{
		client:    client,
		namespace: namespace,
		table:     statusTable(log),
		log:       log,
	}
}

func statusTable(log *flog.Logger) connector.StatusTable {
	return connector.NewStatusTable(connector.PhaseUndefined, map[connector.Phase][]string{
		connector.PhaseQueued:    {statusPending, statusSuspended},
		connector.PhaseRunning:   {statusActive},
		connector.PhaseSucceeded: {statusSucceeded},
		connector.PhaseFailed:    {statusFailed},
	}, log)
}

// jobName builds a unique Job name so repeated submissions of the same
// request never collide. The fake clientset does not expand GenerateName,
// so the suffix is generated here rather than server-side.
func jobName(base string) string {
	return fmt.Sprintf("%s-%s", base, uuid.New().String()[:8])
}

func (c *Connector) buildJob(req connector.Request) *batchv1.Job {
	requests := corev1.ResourceList{}
	limits := corev1.ResourceList{}
	if req.Resources.MinCPU > 0 {
		requests[corev1.ResourceCPU] = resource.MustParse(fmt.Sprintf("%d", req.Resources.MinCPU))
	}
	if req.Resources.MinMemory > 0 {
		requests[corev1.ResourceMemory] = resource.MustParse(fmt.Sprintf("%dGi", req.Resources.MinMemory))
	}
	if req.Resources.MaxCPU > 0 {
		limits[corev1.ResourceCPU] = resource.MustParse(fmt.Sprintf("%d", req.Resources.MaxCPU))
	}
	if req.Resources.MaxMemory > 0 {
		limits[corev1.ResourceMemory] = resource.MustParse(fmt.Sprintf("%dGi", req.Resources.MaxMemory))
	}

	keys := make([]string, 0, len(req.Env))
	for k := range req.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]corev1.EnvVar, 0, len(keys))
	for _, k := range keys {
		env = append(env, corev1.EnvVar{Name: k, Value: req.Env[k]})
	}

	labels := map[string]string{
		jobTypeLabel: "connector",
		jobNameLabel: req.Name,
	}

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      jobName(req.Name),
			Namespace: c.namespace,
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			TTLSecondsAfterFinished: ptr.To(ttlAfterFinished),
			BackoffLimit:            ptr.To(int32(0)),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:    containerName,
							Image:   req.Image,
							Command: req.Args,
							Env:     env,
							Resources: corev1.ResourceRequirements{
								Requests: requests,
								Limits:   limits,
							},
						},
					},
				},
			},
		},
	}
}

// Create submits one Job and returns a handle naming it.
func (c *Connector) Create(ctx context.Context, req connector.Request) (connector.Handle, error) {
	if err := req.Validate(); err != nil {
		return connector.Handle{}, err
	}
	if req.Image == "" {
		return connector.Handle{}, ferr.Newf(ferr.CodeResource, "request has no image")
	}

	c.log.Info("creating job", "job", req.Name, "namespace", c.namespace)
	created, err := c.client.BatchV1().Jobs(c.namespace).Create(ctx, c.buildJob(req), metav1.CreateOptions{})
	if err != nil {
		c.log.Error("failed to create job", "job", req.Name, "error", err.Error())
		return connector.Handle{}, ferr.New(ferr.CodeInvocation, err)
	}

	c.log.Info("created job", "job", req.Name, "job_name", created.Name)
	return connector.Handle{JobID: created.Name, Scope: c.namespace}, nil
}

// rawStatus reduces JobStatus to one raw token, which then goes through the
// status table like any other backend vocabulary.
func rawStatus(job *batchv1.Job) (token, message string) {
	for _, cond := range job.Status.Conditions {
		if cond.Status != corev1.ConditionTrue {
			continue
		}
		switch cond.Type {
		case batchv1.JobFailed:
			return statusFailed, cond.Message
		case batchv1.JobComplete:
			return statusSucceeded, ""
		case batchv1.JobSuspended:
			return statusSuspended, ""
		}
	}
	if job.Status.Succeeded > 0 {
		return statusSucceeded, ""
	}
	if job.Status.Failed > 0 {
		return statusFailed, ""
	}
	if job.Status.Active > 0 {
		return statusActive, ""
	}
	return statusPending, ""
}

// Get reads the Job and normalizes its condition state.
func (c *Connector) Get(ctx context.Context, handle connector.Handle) (*connector.Resource, error) {
	namespace := handle.Scope
	if namespace == "" {
		namespace = c.namespace
	}

	job, err := c.client.BatchV1().Jobs(namespace).Get(ctx, handle.JobID, metav1.GetOptions{})
	if err != nil {
		c.log.Error("failed to get job", "job_name", handle.JobID, "error", err.Error())
		return nil, ferr.New(ferr.CodeInvocation, err)
	}

	raw, message := rawStatus(job)
	phase := c.table.Normalize(raw)
	c.log.Debug("job status", "job_name", handle.JobID, "status", raw, "phase", string(phase))

	res := &connector.Resource{Phase: phase}
	switch phase {
	case connector.PhaseSucceeded:
		res.Outputs = map[string]any{
			"job_name":  job.Name,
			"succeeded": job.Status.Succeeded,
		}
		if job.Status.CompletionTime != nil {
			res.Outputs["completion_time"] = job.Status.CompletionTime.Format("2006-01-02T15:04:05Z07:00")
		}
	case connector.PhaseFailed:
		res.Message = message
	}
	return res, nil
}

// Delete removes the Job with foreground propagation so its pods go with
// it. A Job that is already gone counts as deleted, which makes the call
// idempotent.
func (c *Connector) Delete(ctx context.Context, handle connector.Handle) error {
	namespace := handle.Scope
	if namespace == "" {
		namespace = c.namespace
	}

	policy := metav1.DeletePropagationForeground
	err := c.client.BatchV1().Jobs(namespace).Delete(ctx, handle.JobID, metav1.DeleteOptions{
		PropagationPolicy: &policy,
	})
	if err != nil {
		if apierrors.IsNotFound(err) {
			c.log.Debug("job already deleted", "job_name", handle.JobID)
			return nil
		}
		c.log.Error("failed to delete job", "job_name", handle.JobID, "error", err.Error())
		return ferr.New(ferr.CodeInvocation, err)
	}
	c.log.Info("requested job deletion", "job_name", handle.JobID)
	return nil
}

var _ connector.Connector = (*Connector)(nil)
