package feed

// Channel is a Feed reading chunks from a channel until it is closed.
type Channel struct {
	callbacks

	in   <-chan []byte
	quit chan struct{}
}

func NewChannel(in <-chan []byte) *Channel {
	return &Channel{in: in, quit: make(chan struct{})}
}

func (c *Channel) Start(onChunk func([]byte), onClose func(error)) error {
	err := c.start(onChunk, onClose)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-c.quit:
				return
			case b, ok := <-c.in:
				if !ok {
					c.close(nil)

					return
				}

				c.chunk(b)
			}
		}
	}()

	return nil
}

func (c *Channel) Stop() error {
	if c.stop() {
		close(c.quit)
	}

	return nil
}

var _ Feed = (*Channel)(nil)
