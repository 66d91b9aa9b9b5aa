package main

import (
	"encoding/json"
	"flag"

	"github.com/sirupsen/logrus"

	"emberdb/buffer"
	"emberdb/common"
	"emberdb/config"
	"emberdb/disk"
	"emberdb/disk/wal"
)

type demostruct struct {
	Num int
	Val string
}

// trimPage cuts the page content at the first zero byte.
func trimPage(data []byte) []byte {
	for i, b := range data {
		if b == 0 {
			return data[:i]
		}
	}
	return data
}

func main() {
	confPath := flag.String("config", "", "path of the toml config file")
	flag.Parse()

	cfg := config.Default()
	if *confPath != "" {
		c, err := config.Load(*confPath)
		common.PanicIfErr(err)
		cfg = c
	}

	dm, _, err := disk.NewDiskManager(cfg.DBFile)
	common.PanicIfErr(err)
	defer dm.Close()

	var logManager wal.LogManager = wal.NoopLM
	if cfg.EnableWAL {
		logManager = wal.NewLogManager(dm.GetLogWriter())
	}

	var replacer buffer.IReplacer
	if cfg.Replacer == config.ReplacerLru {
		replacer = buffer.NewLruReplacer(cfg.PoolSize)
	} else {
		replacer = buffer.NewClockReplacer(cfg.PoolSize)
	}

	pool := buffer.NewBufferPoolWithDM(cfg.PoolSize, dm, logManager, replacer)

	// write a batch of pages through the pool and read them back
	pageIDs := make([]uint64, 0)
	for i := 0; i < 50; i++ {
		p, err := pool.NewPage()
		common.PanicIfErr(err)

		x := demostruct{Num: i, Val: "ember"}
		serialized, _ := json.Marshal(x)
		p.WLatch()
		copy(p.GetData(), serialized)
		p.WUnlatch()

		pageIDs = append(pageIDs, p.GetPageId())
		_, err = pool.Unpin(p.GetPageId(), true)
		common.PanicIfErr(err)
	}

	for _, pid := range pageIDs {
		p, err := pool.FetchPage(pid)
		common.PanicIfErr(err)

		p.RLatch()
		x := demostruct{}
		common.PanicIfErr(json.Unmarshal(trimPage(p.GetData()), &x))
		p.RUnLatch()

		logrus.WithFields(logrus.Fields{"pageId": p.GetPageId(), "num": x.Num}).Info("page read back")
		_, err = pool.Unpin(pid, false)
		common.PanicIfErr(err)
	}

	common.PanicIfErr(pool.FlushAll())
}
