package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type sourceStat struct {
	fetches int64
	bytes   int64
}

var (
	fetchErrors    int64
	writerErrors   int64
	fetchWarns     int64
	writerWarns    int64
	fetchCount     int64
	snapshotWrites int64
	tableRows      int64
	mirrorUploads  int64
	sources        sync.Map // map[string]*sourceStat
)

func recordWarn(component string) {
	if strings.Contains(component, "fetch") {
		atomic.AddInt64(&fetchWarns, 1)
	} else if strings.Contains(component, "writer") {
		atomic.AddInt64(&writerWarns, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "fetch") {
		atomic.AddInt64(&fetchErrors, 1)
	} else if strings.Contains(component, "writer") {
		atomic.AddInt64(&writerErrors, 1)
	}
}

// IncrementFetch records one successful provider fetch and its payload size.
func IncrementFetch(source string, size int) {
	atomic.AddInt64(&fetchCount, 1)
	recordSource(source, size)
}

// IncrementSnapshotWrite records one snapshot partition write.
func IncrementSnapshotWrite(rows int) {
	atomic.AddInt64(&snapshotWrites, 1)
}

// IncrementTableRows records rows appended to the durable table.
func IncrementTableRows(rows int) {
	atomic.AddInt64(&tableRows, int64(rows))
}

// IncrementMirrorUpload records one snapshot mirror upload.
func IncrementMirrorUpload(size int) {
	atomic.AddInt64(&mirrorUploads, 1)
}

func recordSource(name string, size int) {
	v, _ := sources.LoadOrStore(name, &sourceStat{})
	st := v.(*sourceStat)
	atomic.AddInt64(&st.fetches, 1)
	atomic.AddInt64(&st.bytes, int64(size))
}

// StartReport begins periodic logging of system and pipeline statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	sourceData := map[string]map[string]int64{}
	sources.Range(func(k, v any) bool {
		name := k.(string)
		st := v.(*sourceStat)
		sourceData[name] = map[string]int64{
			"fetches": atomic.LoadInt64(&st.fetches),
			"bytes":   atomic.LoadInt64(&st.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"fetch_errors":    atomic.LoadInt64(&fetchErrors),
		"writer_errors":   atomic.LoadInt64(&writerErrors),
		"fetch_warns":     atomic.LoadInt64(&fetchWarns),
		"writer_warns":    atomic.LoadInt64(&writerWarns),
		"fetches":         atomic.LoadInt64(&fetchCount),
		"snapshot_writes": atomic.LoadInt64(&snapshotWrites),
		"table_rows":      atomic.LoadInt64(&tableRows),
		"mirror_uploads":  atomic.LoadInt64(&mirrorUploads),
		"goroutines":      runtime.NumGoroutine(),
		"cpu_percent":     cpuPct,
		"memory_mb":       int64(memStats.Used) / 1024 / 1024,
		"disk_mb":         int64(diskStats.Used) / 1024 / 1024,
		"sources":         sourceData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("FetchCount"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&fetchCount)))},
		cwtypes.MetricDatum{MetricName: aws.String("FetchErrors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&fetchErrors)))},
		cwtypes.MetricDatum{MetricName: aws.String("WriterErrors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&writerErrors)))},
		cwtypes.MetricDatum{MetricName: aws.String("SnapshotWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&snapshotWrites)))},
		cwtypes.MetricDatum{MetricName: aws.String("RowsWritten"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&tableRows)))},
		cwtypes.MetricDatum{MetricName: aws.String("MirrorUploads"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&mirrorUploads)))},
	)

	for name, stats := range sourceData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceFetches"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["fetches"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
