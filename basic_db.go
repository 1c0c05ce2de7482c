package hotbench

import (
	"math/rand/v2"
	"time"
)

// BasicDB is a dummy database which only echoes the operations it is asked
// to perform, optionally after a simulated delay.
type BasicDB struct {
	*DBBase
	verbose        bool
	randomizeDelay bool
	toDelay        int64
}

func NewBasicDB() *BasicDB {
	return &BasicDB{
		DBBase: NewDBBase(),
	}
}

func (self *BasicDB) delay() {
	if self.toDelay <= 0 {
		return
	}
	millis := self.toDelay
	if self.randomizeDelay {
		millis = rand.Int64N(self.toDelay)
		if millis == 0 {
			return
		}
	}
	time.Sleep(time.Duration(MillisecondToNanosecond(millis)))
}

func (self *BasicDB) Init() error {
	p := self.GetProperties()
	if p == nil {
		p = NewProperties()
	}
	var err error
	if self.verbose, err = p.GetBool(ConfigBasicDBVerbose, ConfigBasicDBVerboseDefault); err != nil {
		return err
	}
	if self.toDelay, err = p.GetInt64(ConfigSimulateDelay, ConfigSimulateDelayDefault); err != nil {
		return err
	}
	if self.randomizeDelay, err = p.GetBool(ConfigRandomizeDelay, ConfigRandomizeDelayDefault); err != nil {
		return err
	}
	if self.verbose {
		Logger().Info().Fields(toAnyMap(p)).Msg("basic db properties")
	}
	return nil
}

func (self *BasicDB) Cleanup() error {
	return nil
}

func (self *BasicDB) Read(table string, key string, fields []string) (KVMap, StatusType) {
	self.delay()
	if self.verbose {
		Debugf("READ %s %s [%s]", table, key, ConcatFieldsStr(fields))
	}
	return KVMap{}, StatusOK
}

func (self *BasicDB) Scan(table string, startKey string, recordCount int64, fields []string) ([]KVMap, StatusType) {
	self.delay()
	if self.verbose {
		Debugf("SCAN %s %s %d [%s]", table, startKey, recordCount, ConcatFieldsStr(fields))
	}
	return nil, StatusOK
}

func (self *BasicDB) Update(table string, key string, values KVMap) StatusType {
	self.delay()
	if self.verbose {
		Debugf("UPDATE %s %s [%s]", table, key, ConcatKVStr(values))
	}
	return StatusOK
}

func (self *BasicDB) Insert(table string, key string, values KVMap) StatusType {
	self.delay()
	if self.verbose {
		Debugf("INSERT %s %s [%s]", table, key, ConcatKVStr(values))
	}
	return StatusOK
}

func (self *BasicDB) Delete(table string, key string) StatusType {
	self.delay()
	if self.verbose {
		Debugf("DELETE %s %s", table, key)
	}
	return StatusOK
}

func toAnyMap(p Properties) map[string]interface{} {
	ret := make(map[string]interface{}, len(p))
	for k, v := range p {
		ret[k] = v
	}
	return ret
}
